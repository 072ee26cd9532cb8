// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"refactortrack/api/docs"
	"refactortrack/internal/devserver"
	"refactortrack/internal/shared/config"
	"refactortrack/internal/shared/middleware"
	"refactortrack/pkg/logger"
	"refactortrack/pkg/metrics"
	"refactortrack/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config      *config.Config
	backend     *devserver.Server
	logger      *logger.Logger
	rateLimiter *ratelimit.RateLimiter
	metrics     *metrics.Server
	healthCheck func(ctx context.Context) error
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, backend *devserver.Server) *Router {
	return &Router{
		config:  cfg,
		backend: backend,
		logger:  logger.GetDefault(),
	}
}

// WithRateLimiter limits every route per client IP
func (r *Router) WithRateLimiter(rl *ratelimit.RateLimiter) *Router {
	r.rateLimiter = rl
	return r
}

// WithMetrics instruments every route and serves /metrics
func (r *Router) WithMetrics(m *metrics.Server) *Router {
	r.metrics = m
	return r
}

// WithHealthCheck makes /health report the dependency behind check
func (r *Router) WithHealthCheck(check func(ctx context.Context) error) *Router {
	r.healthCheck = check
	return r
}

// WithLogger replaces the default request logger
func (r *Router) WithLogger(l *logger.Logger) *Router {
	r.logger = l
	return r
}

// Engine builds the gin engine with middleware and all routes
func (r *Router) Engine() *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RequestID(), middleware.RequestLogger(r.logger), gin.Recovery())

	// CORS configuration
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     r.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if r.metrics != nil {
		engine.Use(r.metrics.Middleware())
		engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	// Global rate limiting middleware (applied to all routes)
	if r.rateLimiter != nil {
		engine.Use(ratelimit.Middleware(r.rateLimiter, r.logger))
	}

	r.SetupRoutes(engine)
	return engine
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	docs.SwaggerInfo.BasePath = r.config.GetAPIBasePath()
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	r.backend.RegisterRoutes(api)
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if r.healthCheck != nil {
			if err := r.healthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "unhealthy",
					"error":     err.Error(),
					"timestamp": time.Now(),
					"service":   "refactortrack-devserver",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "refactortrack-devserver",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
