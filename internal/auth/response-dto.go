package auth

import "time"

// represents the authentication response
type AuthResponse struct {
	User   User      `json:"user" validate:"required"`
	Tokens TokenPair `json:"tokens" validate:"required"`
}

// LoginResponse is either a completed login or an MFA challenge. The MFA flag decides
// which; a challenge without a token is still a challenge and VerifyMFA rejects it.
type LoginResponse struct {
	MFARequired bool       `json:"mfa_required"`
	MFAToken    string     `json:"mfa_token,omitempty"`
	Methods     []string   `json:"methods,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at,omitempty"`
	User        *User      `json:"user,omitempty" validate:"required_if=MFARequired false"`
	Tokens      *TokenPair `json:"tokens,omitempty" validate:"required_if=MFARequired false"`
}

// Challenge extracts the MFA challenge of an MFA answer
func (r *LoginResponse) Challenge() MFAChallenge {
	return MFAChallenge{
		MFARequired: true,
		MFAToken:    r.MFAToken,
		Methods:     r.Methods,
		ExpiresAt:   r.ExpiresAt,
	}
}

// Auth extracts the completed login of a non-MFA answer
func (r *LoginResponse) Auth() AuthResponse {
	var out AuthResponse
	if r.User != nil {
		out.User = *r.User
	}
	if r.Tokens != nil {
		out.Tokens = *r.Tokens
	}
	return out
}

// MessageResponse is the data of endpoints that only acknowledge
type MessageResponse struct {
	Message string `json:"message"`
}
