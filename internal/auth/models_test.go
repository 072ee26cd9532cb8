package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRoleHierarchy(t *testing.T) {
	tests := []struct {
		user     Role
		required Role
		want     bool
	}{
		{RoleAdmin, RoleViewer, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleManager, RoleRecruiter, true},
		{RoleRecruiter, RoleManager, false},
		{RoleAnalyst, RoleRecruiter, false},
		{RoleViewer, RoleAnalyst, false},
		{Role("root"), RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.user)+">="+string(tt.required), func(t *testing.T) {
			assert.Equal(t, tt.want, HasRole(tt.user, tt.required))
		})
	}

	assert.True(t, HasAnyRole(RoleAnalyst, RoleManager, RoleAnalyst))
	assert.False(t, HasAnyRole(RoleViewer))
}

func TestTokenPairValidity(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pair := TokenPair{
		AccessToken:         "a",
		RefreshToken:        "r",
		AccessTokenExpires:  now.Add(time.Minute),
		RefreshTokenExpires: now.Add(time.Hour),
	}

	assert.True(t, pair.Valid(now))
	assert.True(t, pair.AccessExpired(now.Add(time.Minute)), "expiry instant itself counts as expired")
	assert.False(t, pair.Valid(now.Add(2*time.Minute)))
	assert.True(t, pair.RefreshExpired(now.Add(time.Hour)))
}

func sign(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := JWTClaims{
		UserID: "u-1",
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestNormalizeDerivesExpiryFromJWT(t *testing.T) {
	accessExp := time.Unix(1_900_000_000, 0)
	refreshExp := accessExp.Add(24 * time.Hour)

	pair, err := TokenPair{AccessToken: sign(t, accessExp), RefreshToken: sign(t, refreshExp)}.Normalize()
	require.NoError(t, err)
	assert.True(t, pair.AccessTokenExpires.Equal(accessExp))
	assert.True(t, pair.RefreshTokenExpires.Equal(refreshExp))

	explicit := time.Unix(1_800_000_000, 0)
	pair, err = TokenPair{AccessToken: "opaque", RefreshToken: sign(t, refreshExp), AccessTokenExpires: explicit}.Normalize()
	require.NoError(t, err)
	assert.True(t, pair.AccessTokenExpires.Equal(explicit), "explicit expiries win")

	_, err = TokenPair{AccessToken: "opaque", RefreshToken: "opaque"}.Normalize()
	assert.Error(t, err)
}
