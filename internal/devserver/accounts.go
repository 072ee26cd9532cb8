package devserver

import (
	"fmt"
	"strings"
	"time"

	"refactortrack/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

// SeedAccount is a login the stub backend knows at startup
type SeedAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      auth.Role
	MFA       bool
	// SessionTimeout in minutes, zero leaves the client default
	SessionTimeout int
}

// DefaultAccounts are the development logins, one per role plus an MFA user
func DefaultAccounts() []SeedAccount {
	return []SeedAccount{
		{Email: "admin@refactortrack.dev", Password: "admin-password", FirstName: "Ada", LastName: "Admin", Role: auth.RoleAdmin},
		{Email: "manager@refactortrack.dev", Password: "manager-password", FirstName: "Max", LastName: "Manager", Role: auth.RoleManager},
		{Email: "recruiter@refactortrack.dev", Password: "recruiter-password", FirstName: "Rita", LastName: "Recruiter", Role: auth.RoleRecruiter, SessionTimeout: 60},
		{Email: "analyst@refactortrack.dev", Password: "analyst-password", FirstName: "Ana", LastName: "Analyst", Role: auth.RoleAnalyst},
		{Email: "mfa@refactortrack.dev", Password: "mfa-password", FirstName: "Mia", LastName: "Secure", Role: auth.RoleRecruiter, MFA: true},
	}
}

type account struct {
	user              auth.User
	passwordHash      []byte
	passwordChangedAt time.Time
}

func newAccount(id string, seed SeedAccount, cost int, now time.Time) (*account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password for %s: %w", seed.Email, err)
	}
	return &account{
		user: auth.User{
			ID:             id,
			Email:          normalizeEmail(seed.Email),
			FirstName:      seed.FirstName,
			LastName:       seed.LastName,
			Role:           seed.Role,
			MFAEnabled:     seed.MFA,
			SessionTimeout: seed.SessionTimeout,
		},
		passwordHash:      hash,
		passwordChangedAt: now,
	}, nil
}

func (a *account) checkPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
