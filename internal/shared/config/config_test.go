package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 3, cfg.API.RetryAttempts)
	assert.Equal(t, 5*time.Minute, cfg.API.CacheTTL)
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("JWT_EXPIRES_IN", "120")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("CLIENT_RATE_AUTH_RPS", "0.5")

	cfg := Load()

	assert.Equal(t, 5, cfg.API.RetryAttempts)
	assert.Equal(t, 90*time.Second, cfg.API.CacheTTL)
	assert.Equal(t, 2*time.Minute, cfg.JWT.JWTExpiresIn)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.Brokers)
	assert.Equal(t, 0.5, cfg.RateLimit.ClientAuthRPS)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Load()
	cfg.API.BaseURL = "not a url"
	cfg.API.RetryAttempts = 0
	cfg.Auth.EncryptionKey = "short"
	cfg.Storage.Driver = "cookie"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"API_BASE_URL", "RETRY_ATTEMPTS", "SESSION_ENCRYPTION_KEY", "STORAGE_DRIVER"} {
		assert.Contains(t, err.Error(), want)
	}
}
