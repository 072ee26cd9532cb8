// Package sdk assembles the RefactorTrack client from configuration: storage,
// cache, request layer, session manager and the resource services.
package sdk

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"refactortrack/internal/analytics"
	"refactortrack/internal/apiclient"
	"refactortrack/internal/audit"
	"refactortrack/internal/auth"
	"refactortrack/internal/candidates"
	"refactortrack/internal/clients"
	"refactortrack/internal/requisitions"
	"refactortrack/internal/session"
	"refactortrack/internal/shared/config"
	"refactortrack/internal/shared/constants"
	"refactortrack/pkg/cache"
	"refactortrack/pkg/clock"
	"refactortrack/pkg/logger"
	"refactortrack/pkg/metrics"
	"refactortrack/pkg/ratelimit"
	"refactortrack/pkg/retry"
	"refactortrack/pkg/storage"
)

// Deps are the collaborators New does not build from configuration. Zero values
// get defaults: real clock, default logger, no metrics, no-op audit.
type Deps struct {
	Store      storage.Storage
	HTTPClient *http.Client
	Clock      clock.Clock
	Logger     *logger.Logger
	Metrics    *metrics.Client
	Audit      audit.Publisher
	// Sleep overrides retry waits of both the request layer and the session
	Sleep func(ctx context.Context, d time.Duration) error
}

// SDK is one wired client
type SDK struct {
	Client       *apiclient.Client
	Cache        *cache.Cache
	Store        storage.Storage
	Session      *session.Manager
	Auth         *auth.API
	Clients      *clients.API
	Candidates   *candidates.API
	Requisitions *requisitions.API
	Analytics    *analytics.API
	DeviceID     string

	audit audit.Publisher
}

// New wires an SDK and restores a persisted session when there is one
func New(ctx context.Context, cfg *config.Config, deps Deps) (*SDK, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("sdk: storage is required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = logger.GetDefault()
	}
	if deps.Audit == nil {
		deps.Audit = audit.Noop{}
	}

	vault, err := storage.NewVault(deps.Store, constants.STORAGE_KEY_AUTH, []byte(cfg.Auth.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("sdk: %w", err)
	}
	c := cache.New(deps.Store, cache.WithTTL(cfg.API.CacheTTL), cache.WithClock(deps.Clock))

	client, err := apiclient.New(apiclient.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
		Retry: retry.Policy{
			Attempts:  cfg.API.RetryAttempts,
			BaseDelay: cfg.API.RetryBaseDelay,
			MaxDelay:  cfg.API.RetryMaxDelay,
			Sleep:     deps.Sleep,
		},
		HTTPClient: deps.HTTPClient,
		Logger:     deps.Logger,
		Metrics:    deps.Metrics,
		Limiter:    OutboundLimiter(cfg.RateLimit),
	}, c)
	if err != nil {
		return nil, fmt.Errorf("sdk: %w", err)
	}

	deviceID, err := session.EnsureDeviceID(ctx, deps.Store)
	if err != nil {
		return nil, fmt.Errorf("sdk: %w", err)
	}
	client.SetDeviceID(deviceID)

	authAPI := auth.NewAPI(client)
	manager := session.NewManager(authAPI, vault, deps.Store, c, session.Options{
		RefreshBuffer:    cfg.Auth.RefreshBuffer,
		IdleTimeout:      cfg.Auth.IdleTimeout,
		RefreshAttempts:  cfg.Auth.RefreshAttempts,
		RefreshBaseDelay: cfg.API.RetryBaseDelay,
		RefreshMaxDelay:  cfg.API.RetryMaxDelay,
		DeviceID:         deviceID,
		Sleep:            deps.Sleep,
		Clock:            deps.Clock,
		Logger:           deps.Logger,
		Metrics:          deps.Metrics,
		Audit:            deps.Audit,
	})
	manager.SetCanceller(client)
	client.SetTokenSource(manager)

	if _, err := manager.Restore(ctx); err != nil {
		deps.Logger.WithError(err).Warn("persisted session could not be restored")
	}

	return &SDK{
		Client:       client,
		Cache:        c,
		Store:        deps.Store,
		Session:      manager,
		Auth:         authAPI,
		Clients:      clients.NewAPI(client),
		Candidates:   candidates.NewAPI(client),
		Requisitions: requisitions.NewAPI(client),
		Analytics:    analytics.NewAPI(client),
		DeviceID:     deviceID,
		audit:        deps.Audit,
	}, nil
}

// Close stops the session timers and flushes the audit publisher
func (s *SDK) Close() error {
	s.Session.Close()
	return s.audit.Close()
}

// OutboundLimiter paces the client per endpoint class
func OutboundLimiter(cfg config.RateLimitConfig) *ratelimit.Limiter {
	return ratelimit.NewLimiter(map[ratelimit.RateLimitType]ratelimit.Rate{
		ratelimit.RateLimitTypeDefault:   {PerSecond: cfg.ClientDefaultRPS, Burst: cfg.ClientBurst},
		ratelimit.RateLimitTypeAuth:      {PerSecond: cfg.ClientAuthRPS, Burst: cfg.ClientBurst},
		ratelimit.RateLimitTypeAnalytics: {PerSecond: cfg.ClientAnalyticsRPS, Burst: cfg.ClientBurst},
	})
}

// OpenStorage opens the configured storage driver. The returned func releases it.
func OpenStorage(ctx context.Context, cfg *config.Config) (storage.Storage, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryWithQuota(cfg.Storage.Quota), noop, nil
	case "redis":
		client, err := storage.NewRedisClient(ctx, storage.RedisConfig{
			Address:  cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedis(client, cfg.Redis.Namespace), client.Close, nil
	default:
		f, err := storage.NewFile(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return f, noop, nil
	}
}

// OpenAudit returns the Kafka publisher when the audit trail is enabled
func OpenAudit(cfg *config.Config, log *logger.Logger) (audit.Publisher, error) {
	if !cfg.Audit.Enabled {
		return audit.Noop{}, nil
	}
	pub, err := audit.NewKafkaPublisher(audit.DefaultKafkaConfig(cfg.Audit.Brokers, cfg.Audit.Topic), log)
	if err != nil {
		return nil, err
	}
	return pub, nil
}
