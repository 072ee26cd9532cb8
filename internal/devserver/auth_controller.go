package devserver

import (
	"errors"
	"net/http"
	"strings"

	"refactortrack/internal/auth"
	"refactortrack/internal/shared/middleware"
	"refactortrack/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

var mfaMethods = []string{"totp"}

// Login answers with tokens, or with an MFA challenge for MFA accounts.
// Every credential failure gets the same 401.
func (s *Server) Login(ctx *gin.Context) {
	var req auth.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || s.validate.Struct(&req) != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid email or password", nil, nil)
		return
	}

	user, err := s.Store.Authenticate(req.Email, req.Password)
	if err != nil {
		s.log.LogAuthFailure(ctx.Request.Context(), "invalid_credentials", ctx.ClientIP())
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid email or password", nil, nil)
		return
	}

	if user.MFAEnabled {
		token, expiresAt, err := s.Tokens.IssueMFA(user)
		if err != nil {
			s.respondStoreError(ctx, "Login failed", err)
			return
		}
		response.RespondJSON(ctx, "success", http.StatusOK, "MFA verification required", auth.LoginResponse{
			MFARequired: true,
			MFAToken:    token,
			Methods:     mfaMethods,
			ExpiresAt:   expiresAt,
		}, nil)
		return
	}

	authResp, err := s.completeLogin(ctx, user, "password")
	if err != nil {
		s.respondStoreError(ctx, "Login failed", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", auth.LoginResponse{
		User:   &authResp.User,
		Tokens: &authResp.Tokens,
	}, nil)
}

// VerifyMFA finishes a login that was answered with a challenge
func (s *Server) VerifyMFA(ctx *gin.Context) {
	var req auth.MFAVerifyRequest
	if !s.bindJSON(ctx, "mfa verification", &req) {
		return
	}

	claims, err := s.Tokens.ParseMFA(req.MFAToken)
	if err != nil || req.Code != s.opts.MFACode {
		s.log.LogAuthFailure(ctx.Request.Context(), "invalid_mfa", ctx.ClientIP())
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid or expired verification code", nil, nil)
		return
	}
	// one challenge, one answer
	s.Tokens.Revoke(claims)

	user, err := s.Store.User(claims.UserID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid or expired verification code", nil, nil)
		return
	}
	authResp, err := s.completeLogin(ctx, user, "mfa")
	if err != nil {
		s.respondStoreError(ctx, "Verification failed", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", authResp, nil)
}

func (s *Server) completeLogin(ctx *gin.Context, user auth.User, method string) (*auth.AuthResponse, error) {
	user, err := s.Store.RecordLogin(user.ID)
	if err != nil {
		return nil, err
	}
	tokens, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.log.LogAuthSuccess(ctx.Request.Context(), user.ID, method)
	return &auth.AuthResponse{User: user, Tokens: *tokens}, nil
}

// Refresh rotates the token pair. The presented refresh token is spent.
func (s *Server) Refresh(ctx *gin.Context) {
	var req auth.RefreshTokenRequest
	if !s.bindJSON(ctx, "refresh request", &req) {
		return
	}

	claims, err := s.Tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid or expired refresh token", nil, nil)
		return
	}
	user, err := s.Store.User(claims.UserID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid or expired refresh token", nil, nil)
		return
	}

	s.Tokens.Revoke(claims)
	tokens, err := s.Tokens.Issue(user)
	if err != nil {
		s.respondStoreError(ctx, "Token refresh failed", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Token refreshed successfully", tokens, nil)
}

// Logout revokes the caller's access token and, when given, its refresh token
func (s *Server) Logout(ctx *gin.Context) {
	var req auth.LogoutRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
			return
		}
	}

	bearer := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
	if claims, err := s.Tokens.ParseAccess(bearer); err == nil {
		s.Tokens.Revoke(claims)
	}
	if req.RefreshToken != "" {
		if claims, err := s.Tokens.ParseRefresh(req.RefreshToken); err == nil {
			s.Tokens.Revoke(claims)
		}
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Logged out successfully", auth.MessageResponse{Message: "logged out"}, nil)
}

// RequestPasswordReset never reveals whether the email is registered
func (s *Server) RequestPasswordReset(ctx *gin.Context) {
	var req auth.PasswordResetRequest
	if !s.bindJSON(ctx, "password reset", &req) {
		return
	}

	if token, ok := s.Store.IssueResetToken(req.Email); ok {
		// no mail in development, the token goes to the log
		s.log.DebugWithContext(ctx.Request.Context(), "password reset token issued", map[string]interface{}{
			"reset_token": token,
		})
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "If the account exists, a reset link has been sent",
		auth.MessageResponse{Message: "password reset requested"}, nil)
}

func (s *Server) ConfirmPasswordReset(ctx *gin.Context) {
	var req auth.PasswordResetConfirmRequest
	if !s.bindJSON(ctx, "password reset confirmation", &req) {
		return
	}

	if err := s.Store.ResetPassword(req.Token, req.NewPassword, s.opts.BcryptCost); err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrUserNotFound) {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid or expired reset token", nil, nil)
			return
		}
		s.respondStoreError(ctx, "Password reset failed", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Password updated successfully",
		auth.MessageResponse{Message: "password updated"}, nil)
}

// Me returns the authenticated user
func (s *Server) Me(ctx *gin.Context) {
	user, err := s.Store.User(ctx.GetString(middleware.ContextUserID))
	if err != nil {
		s.respondStoreError(ctx, "Failed to get profile", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Profile retrieved successfully", user, nil)
}
