package session

import (
	"context"
	"net/http"
	"testing"

	"refactortrack/internal/apiclient/apiclienttest"
	"refactortrack/internal/auth"
	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/constants"
	"refactortrack/pkg/logger"
	"refactortrack/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBareMFAFlagYieldsChallenge(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		apiclienttest.WriteEnvelope(w, http.StatusOK, map[string]any{"mfa_required": true})
	})
	mux.HandleFunc("POST /api/v1/auth/mfa/verify", func(w http.ResponseWriter, _ *http.Request) {
		apiclienttest.WriteEnvelope(w, http.StatusUnauthorized, nil)
	})
	b := apiclienttest.New(t, mux)

	vault, err := storage.NewVault(b.Store, constants.STORAGE_KEY_AUTH, testSecret)
	require.NoError(t, err)
	m := NewManager(auth.NewAPI(b.Client), vault, b.Store, b.Cache, Options{
		Clock:  b.Clock,
		Logger: logger.Discard(),
	})
	t.Cleanup(m.Close)
	ctx := context.Background()

	res, err := m.Login(ctx, creds)
	require.NoError(t, err)
	require.True(t, res.MFARequired())
	assert.Nil(t, res.Auth)
	assert.Empty(t, res.Challenge.MFAToken)
	assert.True(t, m.State().MFAPending)
	assert.False(t, m.State().IsAuthenticated)

	err = vault.Load(ctx, &persisted{})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = m.VerifyMFA(ctx, *res.Challenge, "123456")
	require.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
	assert.Equal(t, 1, b.Calls(""), "a challenge without a token is never sent")
}
