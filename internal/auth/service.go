package auth

import (
	"context"
	"net/http"

	"refactortrack/internal/apiclient"
	"refactortrack/internal/shared/constants"
)

// API calls the backend authentication endpoints. Every call except Me and Logout
// is public; Logout carries the token being revoked explicitly.
type API struct {
	client *apiclient.Client
}

func NewAPI(client *apiclient.Client) *API {
	return &API{client: client}
}

// Login answers with tokens or with an MFA challenge
func (a *API) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:    http.MethodPost,
		Path:      "/auth/login",
		Body:      req,
		Public:    true,
		Namespace: "auth_login",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyMFA exchanges an MFA token and code for a session
func (a *API) VerifyMFA(ctx context.Context, req *MFAVerifyRequest) (*AuthResponse, error) {
	var out AuthResponse
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:    http.MethodPost,
		Path:      "/auth/mfa/verify",
		Body:      req,
		Public:    true,
		Namespace: "auth_mfa",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates the token pair
func (a *API) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var out TokenPair
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:    http.MethodPost,
		Path:      "/auth/refresh",
		Body:      &RefreshTokenRequest{RefreshToken: refreshToken},
		Public:    true,
		Namespace: "auth_refresh",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the refresh token on the backend
func (a *API) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return a.client.Write(ctx, apiclient.WriteRequest{
		Method:    http.MethodPost,
		Path:      "/auth/logout",
		Body:      &LogoutRequest{RefreshToken: refreshToken},
		Token:     accessToken,
		Namespace: "auth_logout",
	}, nil)
}

// RequestPasswordReset starts a reset; the answer never reveals whether the email exists
func (a *API) RequestPasswordReset(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:    http.MethodPost,
		Path:      "/auth/password-reset",
		Body:      &PasswordResetRequest{Email: email},
		Public:    true,
		Namespace: "auth_password_reset",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmPasswordReset sets a new password with a reset token
func (a *API) ConfirmPasswordReset(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	var out MessageResponse
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:    http.MethodPost,
		Path:      "/auth/password-reset/confirm",
		Body:      &PasswordResetConfirmRequest{Token: token, NewPassword: newPassword},
		Public:    true,
		Namespace: "auth_password_reset",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the authenticated user. Identity is never served from the cache.
func (a *API) Me(ctx context.Context) (*User, error) {
	var out User
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_AUTH_ME,
		Path:      "/auth/me",
		NoCache:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
