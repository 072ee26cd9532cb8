package session

import (
	"time"

	"refactortrack/internal/auth"
)

// AuthState is the observable session state
type AuthState struct {
	IsAuthenticated  bool
	User             *auth.User
	Tokens           *auth.TokenPair
	Error            error
	MFAPending       bool
	SessionExpiresAt time.Time
}

// LoginResult holds exactly one of a completed login or an MFA challenge
type LoginResult struct {
	Auth      *AuthState
	Challenge *auth.MFAChallenge
}

// MFARequired reports whether the login must be completed with VerifyMFA
func (r LoginResult) MFARequired() bool {
	return r.Challenge != nil
}

// persisted is the document sealed in the vault
type persisted struct {
	User   auth.User      `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}
