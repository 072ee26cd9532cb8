package devserver

import (
	"fmt"
	"sync"
	"time"

	"refactortrack/internal/auth"
	"refactortrack/internal/shared/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	tokenTypeMFA = "mfa"
	mfaTTL       = 5 * time.Minute
)

// TokenService issues and verifies the stub backend's JWTs
type TokenService struct {
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    make(map[string]time.Time),
	}
}

// Issue creates an access/refresh pair for user
func (s *TokenService) Issue(user auth.User) (*auth.TokenPair, error) {
	access, accessExp, err := s.sign(user, auth.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, refreshExp, err := s.sign(user, auth.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &auth.TokenPair{
		AccessToken:         access,
		RefreshToken:        refresh,
		AccessTokenExpires:  accessExp,
		RefreshTokenExpires: refreshExp,
	}, nil
}

// IssueMFA creates the short-lived token that stands for a half-finished login
func (s *TokenService) IssueMFA(user auth.User) (string, time.Time, error) {
	return s.sign(user, tokenTypeMFA, mfaTTL)
}

func (s *TokenService) sign(user auth.User, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := jwt.NewNumericDate(now.Add(ttl))
	claims := &auth.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: exp,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp.Time, nil
}

// ParseAccess verifies an access token and its revocation
func (s *TokenService) ParseAccess(token string) (*auth.JWTClaims, error) {
	claims, err := middleware.ParseAccessToken(s.secret, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if s.IsRevoked(claims.ID) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token and its revocation
func (s *TokenService) ParseRefresh(token string) (*auth.JWTClaims, error) {
	return s.parse(token, auth.TokenTypeRefresh)
}

// ParseMFA verifies an MFA token
func (s *TokenService) ParseMFA(token string) (*auth.JWTClaims, error) {
	return s.parse(token, tokenTypeMFA)
}

func (s *TokenService) parse(tokenString, tokenType string) (*auth.JWTClaims, error) {
	claims := &auth.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid || claims.Type != tokenType {
		return nil, ErrInvalidToken
	}
	if s.IsRevoked(claims.ID) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke blocks a token id until its expiry
func (s *TokenService) Revoke(claims *auth.JWTClaims) {
	if claims == nil || claims.ID == "" {
		return
	}
	expires := time.Now().Add(s.refreshTTL)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = expires
}

func (s *TokenService) IsRevoked(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok
}
