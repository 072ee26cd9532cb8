package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleRecruiter Role = "recruiter"
	RoleAnalyst   Role = "analyst"
	RoleViewer    Role = "viewer"
)

// roleRank orders roles from least to most privileged
var roleRank = map[Role]int{
	RoleViewer:    1,
	RoleAnalyst:   2,
	RoleRecruiter: 3,
	RoleManager:   4,
	RoleAdmin:     5,
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// HasRole reports whether userRole meets or exceeds required in the role hierarchy.
//
// This check is advisory: it decides what a client offers to the user, nothing more.
// Authorization is enforced by the backend on every request and a client-side answer
// is never a security boundary.
func HasRole(userRole, required Role) bool {
	have, ok := roleRank[userRole]
	if !ok {
		return false
	}
	return have >= roleRank[required]
}

// HasAnyRole reports whether userRole satisfies at least one of roles. Advisory, see HasRole.
func HasAnyRole(userRole Role, roles ...Role) bool {
	for _, r := range roles {
		if HasRole(userRole, r) {
			return true
		}
	}
	return false
}

// User is the identity snapshot taken at login
type User struct {
	ID         string     `json:"id" validate:"required"`
	Email      string     `json:"email" validate:"required,email"`
	FirstName  string     `json:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty"`
	Role       Role       `json:"role" validate:"required,oneof=admin manager recruiter analyst viewer"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	MFAEnabled bool       `json:"mfa_enabled"`
	// SessionTimeout is the idle timeout in minutes; zero uses the client default
	SessionTimeout int `json:"session_timeout,omitempty" validate:"gte=0"`
}

// IdleTimeout returns the user's own idle timeout, or zero when unset
func (u User) IdleTimeout() time.Duration {
	return time.Duration(u.SessionTimeout) * time.Minute
}

// TokenPair holds the access and refresh tokens with their absolute expiries
type TokenPair struct {
	AccessToken         string    `json:"access_token" validate:"required"`
	RefreshToken        string    `json:"refresh_token" validate:"required"`
	AccessTokenExpires  time.Time `json:"access_token_expires"`
	RefreshTokenExpires time.Time `json:"refresh_token_expires"`
}

// AccessExpired reports whether the access token is past its expiry
func (t TokenPair) AccessExpired(now time.Time) bool {
	return !now.Before(t.AccessTokenExpires)
}

// RefreshExpired reports whether the refresh token is past its expiry
func (t TokenPair) RefreshExpired(now time.Time) bool {
	return !now.Before(t.RefreshTokenExpires)
}

// Valid reports whether both tokens are present and unexpired
func (t TokenPair) Valid(now time.Time) bool {
	return t.AccessToken != "" && t.RefreshToken != "" && !t.AccessExpired(now) && !t.RefreshExpired(now)
}

// MFAChallenge is returned by login instead of tokens when the account has MFA enabled
type MFAChallenge struct {
	MFARequired bool      `json:"mfa_required"`
	MFAToken    string    `json:"mfa_token" validate:"required"`
	Methods     []string  `json:"methods"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the challenge can no longer be answered
func (c MFAChallenge) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// JWTClaims represents JWT token claims
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)
