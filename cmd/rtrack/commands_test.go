package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"refactortrack/internal/devserver"
	"refactortrack/internal/sdk"
	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/config"
	"refactortrack/internal/shared/constants"
	"refactortrack/pkg/clock"
	"refactortrack/pkg/logger"
	"refactortrack/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newBackend(t *testing.T) *config.Config {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	cfg.JWT.Secret = "cli-secret"
	cfg.RateLimit.ClientDefaultRPS = 0
	cfg.RateLimit.ClientAuthRPS = 0
	cfg.RateLimit.ClientAnalyticsRPS = 0

	opts := devserver.OptionsFromConfig(cfg)
	opts.BcryptCost = bcrypt.MinCost
	opts.Logger = logger.Discard()
	backend, err := devserver.New(opts)
	require.NoError(t, err)

	engine := gin.New()
	backend.RegisterRoutes(engine.Group(cfg.GetAPIBasePath()))
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	cfg.API.BaseURL = srv.URL + cfg.GetAPIBasePath()
	return cfg
}

// invoke runs one command the way a fresh process would: a new SDK over the shared store
func invoke(t *testing.T, cfg *config.Config, store storage.Storage, name string, args ...string) (string, error) {
	t.Helper()
	return invokeAt(t, cfg, store, nil, name, args...)
}

// invokeAt is invoke with the SDK running on clk; nil means the real clock
func invokeAt(t *testing.T, cfg *config.Config, store storage.Storage, clk clock.Clock, name string, args ...string) (string, error) {
	t.Helper()
	ctx := context.Background()
	rt, err := sdk.New(ctx, cfg, sdk.Deps{
		Store:  store,
		Clock:  clk,
		Logger: logger.Discard(),
		Sleep:  func(context.Context, time.Duration) error { return nil },
	})
	require.NoError(t, err)

	var out bytes.Buffer
	a := &app{rt: rt, log: logger.Discard(), out: &out, release: func() error { return nil }}
	err = a.run(ctx, commands[name], args)
	a.close()
	return out.String(), err
}

func TestSessionSurvivesInvocations(t *testing.T) {
	cfg := newBackend(t)
	store, err := storage.NewFile(t.TempDir())
	require.NoError(t, err)

	out, err := invoke(t, cfg, store, "login", "-email", "recruiter@refactortrack.dev", "-password", "recruiter-password")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as recruiter@refactortrack.dev (recruiter)")

	out, err = invoke(t, cfg, store, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "recruiter@refactortrack.dev")

	out, err = invoke(t, cfg, store, "clients", "-limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "COMPANY")
	assert.Contains(t, out, "page 1 of")

	out, err = invoke(t, cfg, store, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = invoke(t, cfg, store, "whoami")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestMFAChallengeIsPersisted(t *testing.T) {
	cfg := newBackend(t)
	store := storage.NewMemory()

	out, err := invoke(t, cfg, store, "login", "-email", "mfa@refactortrack.dev", "-password", "mfa-password")
	require.NoError(t, err)
	assert.Contains(t, out, "MFA required")

	_, err = invoke(t, cfg, store, "mfa")
	assert.Error(t, err)

	out, err = invoke(t, cfg, store, "mfa", "-code", cfg.JWT.DevMFACode)
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as mfa@refactortrack.dev")

	_, err = invoke(t, cfg, store, "mfa", "-code", cfg.JWT.DevMFACode)
	assert.ErrorContains(t, err, "no MFA challenge is pending")
}

func TestDashboardAndRequisitions(t *testing.T) {
	cfg := newBackend(t)
	store := storage.NewMemory()

	_, err := invoke(t, cfg, store, "login", "-email", "analyst@refactortrack.dev", "-password", "analyst-password")
	require.NoError(t, err)

	out, err := invoke(t, cfg, store, "dashboard", "-days", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "Period")
	assert.Contains(t, out, "WEEK")

	out, err = invoke(t, cfg, store, "requisitions", "-status", "open")
	require.NoError(t, err)
	assert.Contains(t, out, "open")

	_, err = invoke(t, cfg, store, "dashboard", "-days", "0")
	assert.Error(t, err)
}

func TestEachCommandExtendsTheIdleDeadline(t *testing.T) {
	cfg := newBackend(t)
	// the fake clock runs ahead of the backend, keep its tokens valid meanwhile
	cfg.JWT.JWTExpiresIn = 6 * time.Hour
	cfg.JWT.RefreshExpiresIn = 48 * time.Hour
	store := storage.NewMemory()
	clk := clock.NewFake(time.Now())

	// the recruiter account idles out after 60 minutes
	_, err := invokeAt(t, cfg, store, clk, "login", "-email", "recruiter@refactortrack.dev", "-password", "recruiter-password")
	require.NoError(t, err)

	for i := 1; i <= 9; i++ {
		clk.Advance(10 * time.Minute)
		_, err := invokeAt(t, cfg, store, clk, "clients", "-limit", "1")
		require.NoError(t, err, "command %d minutes after login", i*10)
	}

	clk.Advance(61 * time.Minute)
	_, err = invokeAt(t, cfg, store, clk, "clients", "-limit", "1")
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)

	out, err := invokeAt(t, cfg, store, clk, "status")
	require.NoError(t, err)
	assert.Regexp(t, `Authenticated\s+false`, out)
}

func TestStatusAndForcedLogout(t *testing.T) {
	cfg := newBackend(t)
	store := storage.NewMemory()

	_, err := invoke(t, cfg, store, "login", "-email", "manager@refactortrack.dev", "-password", "manager-password")
	require.NoError(t, err)

	out, err := invoke(t, cfg, store, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Session expires")
	assert.Contains(t, out, "manager@refactortrack.dev (manager)")

	_, err = invoke(t, cfg, store, "clients")
	require.NoError(t, err)
	keys, err := store.Keys(context.Background(), constants.CACHE_PREFIX_CLIENTS)
	require.NoError(t, err)
	assert.NotEmpty(t, keys)

	_, err = invoke(t, cfg, store, "logout", "-force")
	require.NoError(t, err)
	keys, err = store.Keys(context.Background(), constants.CACHE_PREFIX_CLIENTS)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Go", "AWS"}, splitList(" Go, ,AWS "))
	assert.Nil(t, splitList(""))
}
