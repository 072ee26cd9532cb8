package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the SDK, the CLI and the stub backend
type Config struct {
	// Server configuration (stub backend)
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	AllowedOrigins []string

	// Client configuration
	API APIConfig

	// Session configuration
	Auth AuthConfig

	// Storage configuration
	Storage StorageConfig

	// Redis configuration
	Redis RedisConfig

	// JWT configuration (stub backend)
	JWT JWTConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Session audit trail
	Audit AuditConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// APIConfig holds the request layer settings
type APIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	CacheTTL       time.Duration
	UserAgent      string
}

// AuthConfig holds the session manager settings
type AuthConfig struct {
	ProviderDomain  string
	ClientID        string
	RefreshBuffer   time.Duration
	IdleTimeout     time.Duration
	RefreshAttempts int
	EncryptionKey   string
}

// StorageConfig selects the storage backend
type StorageConfig struct {
	Driver string // memory, file or redis
	Dir    string
	Quota  int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	Addr      string
	Namespace string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	JWTExpiresIn     time.Duration
	RefreshExpiresIn time.Duration
	DevMFACode       string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Server sliding window
	Enabled           bool          `json:"enabled"`
	WindowDuration    time.Duration `json:"window_duration"`
	DefaultRequests   int           `json:"default_requests"`
	AuthRequests      int           `json:"auth_requests"`
	WriteRequests     int           `json:"write_requests"`
	AnalyticsRequests int           `json:"analytics_requests"`
	HealthRequests    int           `json:"health_requests"`
	WhitelistedIPs    []string      `json:"whitelisted_ips"`

	// Outbound client pacing, requests per second (0 disables)
	ClientDefaultRPS   float64 `json:"client_default_rps"`
	ClientAuthRPS      float64 `json:"client_auth_rps"`
	ClientAnalyticsRPS float64 `json:"client_analytics_rps"`
	ClientBurst        int     `json:"client_burst"`
}

// AuditConfig holds the Kafka audit trail configuration
type AuditConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB
		AllowedOrigins: getStringSliceEnv("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		// Client configuration
		API: APIConfig{
			BaseURL:        getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),
			Timeout:        getDurationEnv("API_TIMEOUT", 30*time.Second),
			RetryAttempts:  getIntEnv("RETRY_ATTEMPTS", 3),
			RetryBaseDelay: getDurationEnv("RETRY_BASE_DELAY", 500*time.Millisecond),
			RetryMaxDelay:  getDurationEnv("RETRY_MAX_DELAY", 5*time.Second),
			CacheTTL:       getDurationEnv("CACHE_TTL", 5*time.Minute),
			UserAgent:      getEnv("API_USER_AGENT", "refactortrack-sdk/1.0"),
		},

		// Session configuration
		Auth: AuthConfig{
			ProviderDomain:  getEnv("AUTH_PROVIDER_DOMAIN", ""),
			ClientID:        getEnv("AUTH_CLIENT_ID", ""),
			RefreshBuffer:   getDurationEnv("TOKEN_REFRESH_BUFFER", 5*time.Minute),
			IdleTimeout:     getDurationEnv("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			RefreshAttempts: getIntEnv("TOKEN_REFRESH_ATTEMPTS", 3),
			EncryptionKey:   getEnv("SESSION_ENCRYPTION_KEY", "dev-only-session-encryption-key"),
		},

		// Storage configuration
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "file"),
			Dir:    getEnv("STORAGE_DIR", defaultStorageDir()),
			Quota:  getIntEnv("STORAGE_QUOTA_BYTES", 5*1024*1024), // 5 MB, same order as browser storage
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getIntEnv("REDIS_DB", 0),
			Namespace: getEnv("REDIS_NAMESPACE", "refactortrack:"),
		},

		// JWT configuration
		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
			JWTExpiresIn:     getDurationEnvSeconds("JWT_EXPIRES_IN", 15*time.Minute),
			RefreshExpiresIn: getDurationEnvSeconds("JWT_REFRESH_EXPIRES_IN", 24*time.Hour),
			DevMFACode:       getEnv("DEV_MFA_CODE", "123456"),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:           getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:    getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests:   getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 120),
			AuthRequests:      getIntEnv("RATE_LIMIT_AUTH_REQUESTS", 20),
			WriteRequests:     getIntEnv("RATE_LIMIT_WRITE_REQUESTS", 60),
			AnalyticsRequests: getIntEnv("RATE_LIMIT_ANALYTICS_REQUESTS", 30),
			HealthRequests:    getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 300),
			WhitelistedIPs:    getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),

			ClientDefaultRPS:   getFloatEnv("CLIENT_RATE_DEFAULT_RPS", 10),
			ClientAuthRPS:      getFloatEnv("CLIENT_RATE_AUTH_RPS", 1),
			ClientAnalyticsRPS: getFloatEnv("CLIENT_RATE_ANALYTICS_RPS", 2),
			ClientBurst:        getIntEnv("CLIENT_RATE_BURST", 5),
		},

		// Audit configuration
		Audit: AuditConfig{
			Enabled: getBoolEnv("AUDIT_ENABLED", false),
			Brokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("AUDIT_TOPIC", "refactortrack.session-events"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", ""),
	}

	// Build composite values
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL))
	}
	if c.API.RetryAttempts < 1 {
		errs = append(errs, errors.New("RETRY_ATTEMPTS must be at least 1"))
	}
	if c.API.RetryMaxDelay < c.API.RetryBaseDelay {
		errs = append(errs, errors.New("RETRY_MAX_DELAY must not be below RETRY_BASE_DELAY"))
	}
	if c.API.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if c.Auth.RefreshAttempts < 1 {
		errs = append(errs, errors.New("TOKEN_REFRESH_ATTEMPTS must be at least 1"))
	}
	if len(c.Auth.EncryptionKey) < 16 {
		errs = append(errs, errors.New("SESSION_ENCRYPTION_KEY must be at least 16 bytes"))
	}
	switch c.Storage.Driver {
	case "memory", "redis":
	case "file":
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("STORAGE_DIR is required for the file driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be memory, file or redis, got %q", c.Storage.Driver))
	}
	if c.Audit.Enabled && (len(c.Audit.Brokers) == 0 || c.Audit.Topic == "") {
		errs = append(errs, errors.New("KAFKA_BROKERS and AUDIT_TOPIC are required when AUDIT_ENABLED"))
	}

	return errors.Join(errs...)
}

func defaultStorageDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/refactortrack"
	}
	return ".refactortrack"
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getFloatEnv gets a float environment variable with a fallback value
func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds gets an environment variable as seconds (int) and converts to time.Duration
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
