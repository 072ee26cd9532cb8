package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"refactortrack/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   RateLimitType
	}{
		{http.MethodGet, "/health", RateLimitTypeHealth},
		{http.MethodPost, "/api/v1/auth/login", RateLimitTypeAuth},
		{http.MethodGet, "/api/v1/analytics/metrics", RateLimitTypeAnalytics},
		{http.MethodPost, "/api/v1/analytics/refresh", RateLimitTypeAnalytics},
		{http.MethodPut, "/api/v1/clients/:id", RateLimitTypeWrite},
		{http.MethodGet, "/api/v1/clients", RateLimitTypeDefault},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.method, tt.path))
		})
	}
}

func TestLocalBucketRejectsOverBudget(t *testing.T) {
	rl := NewRateLimiter(nil, &Config{
		Enabled:        true,
		WindowDuration: time.Minute,
		AuthRequests:   2,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := rl.IsAllowed(ctx, "10.0.0.1", RateLimitTypeAuth)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := rl.IsAllowed(ctx, "10.0.0.1", RateLimitTypeAuth)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	other, err := rl.IsAllowed(ctx, "10.0.0.2", RateLimitTypeAuth)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "buckets are per client")
}

func TestWhitelistedAndDisabled(t *testing.T) {
	rl := NewRateLimiter(nil, &Config{
		Enabled:         true,
		WindowDuration:  time.Minute,
		DefaultRequests: 0,
		WhitelistedIPs:  []string{"127.0.0.1"},
	})
	res, err := rl.IsAllowed(context.Background(), "127.0.0.1", RateLimitTypeDefault)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	off := NewRateLimiter(nil, &Config{Enabled: false, WindowDuration: time.Minute})
	res, err = off.IsAllowed(context.Background(), "10.0.0.9", RateLimitTypeDefault)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(nil, &Config{Enabled: true, WindowDuration: time.Minute, DefaultRequests: 1})

	r := gin.New()
	r.Use(Middleware(rl, logger.Discard()))
	r.GET("/api/v1/clients", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestOutboundLimiterHonoursContext(t *testing.T) {
	l := NewLimiter(map[RateLimitType]Rate{
		RateLimitTypeDefault: {PerSecond: 0.001, Burst: 1},
	})

	require.NoError(t, l.Wait(context.Background(), RateLimitTypeAnalytics), "falls back to the default bucket")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, RateLimitTypeDefault))

	var unlimited *Limiter
	assert.NoError(t, unlimited.Wait(context.Background(), RateLimitTypeAuth))
}
