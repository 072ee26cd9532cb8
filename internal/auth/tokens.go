package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrNoExpiry = errors.New("token carries no exp claim")

// ExpiryFromJWT reads the exp claim of a JWT without verifying its signature.
// The client never holds the signing key; the value only drives refresh scheduling.
func ExpiryFromJWT(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Normalize fills missing expiries from the tokens' own exp claims
func (t TokenPair) Normalize() (TokenPair, error) {
	if t.AccessTokenExpires.IsZero() {
		exp, err := ExpiryFromJWT(t.AccessToken)
		if err != nil {
			return t, fmt.Errorf("access token expiry: %w", err)
		}
		t.AccessTokenExpires = exp
	}
	if t.RefreshTokenExpires.IsZero() {
		exp, err := ExpiryFromJWT(t.RefreshToken)
		if err != nil {
			return t, fmt.Errorf("refresh token expiry: %w", err)
		}
		t.RefreshTokenExpires = exp
	}
	return t, nil
}
