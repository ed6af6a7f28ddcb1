// Package api provides the HTTP API for the certvault server.
package api

import (
	"context"

	"github.com/MacJediWizard/certvault/internal/api/handlers"
	"github.com/MacJediWizard/certvault/internal/api/middleware"
	"github.com/MacJediWizard/certvault/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/MacJediWizard/certvault/docs/api"
)

// Config holds configuration for the API router.
type Config struct {
	// Environment controls CORS strictness.
	Environment config.Environment
	// AllowedOrigins for CORS. Empty means all origins allowed outside production.
	AllowedOrigins []string
	// RateLimitRequests is the number of requests allowed per period.
	RateLimitRequests int64
	// RateLimitPeriod is the duration string for rate limiting (e.g. "1m", "1h").
	RateLimitPeriod string
	// Version information for the version endpoint.
	Version   string
	Commit    string
	BuildDate string
}

// DefaultConfig returns a Config with sensible defaults for development.
func DefaultConfig() Config {
	return Config{
		Environment:       config.EnvDevelopment,
		AllowedOrigins:    []string{},
		RateLimitRequests: 100,
		RateLimitPeriod:   "1m",
		Version:           "dev",
		Commit:            "unknown",
		BuildDate:         "unknown",
	}
}

// Authenticator is what the router needs from the auth layer.
type Authenticator interface {
	handlers.Authenticator
	middleware.TokenValidator
}

// Store is the persistence surface the router exposes directly.
type Store interface {
	handlers.UserLookup
	handlers.CourseStore
	handlers.DatabaseHealthChecker
}

// Dependencies are the collaborators wired into the router.
type Dependencies struct {
	Store         Store
	Authenticator Authenticator
	Certificates  handlers.CertificateService
	Verifier      handlers.Verifier
	// Metrics observes requests when non-nil.
	Metrics middleware.RequestObserver
	// Gatherer backs /metrics when non-nil.
	Gatherer prometheus.Gatherer
	// Redis shares rate-limit counters and is reported by /health when non-nil.
	Redis *redis.Client
}

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
}

// NewRouter creates a new Router with the given dependencies.
func NewRouter(cfg Config, deps Dependencies, logger zerolog.Logger) (*Router, error) {
	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
	}

	// Global middleware
	r.Engine.Use(gin.Recovery())
	r.Engine.Use(middleware.RequestID())
	r.Engine.Use(middleware.RequestLogger(logger))
	if deps.Metrics != nil {
		r.Engine.Use(middleware.Metrics(deps.Metrics))
	}
	r.Engine.Use(middleware.SecurityHeaders())
	r.Engine.Use(middleware.CORS(cfg.AllowedOrigins, cfg.Environment, logger))

	// Rate limiting
	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitPeriod, deps.Redis)
	if err != nil {
		return nil, err
	}
	r.Engine.Use(rateLimiter)

	// Health check endpoints (no auth required)
	var redisChecker handlers.RedisHealthChecker
	if deps.Redis != nil {
		client := deps.Redis
		redisChecker = handlers.RedisPinger(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	handlers.NewHealthHandler(deps.Store, redisChecker, logger).RegisterPublicRoutes(r.Engine)

	// Prometheus metrics endpoint (no auth required)
	if deps.Gatherer != nil {
		handlers.NewMetricsHandler(deps.Gatherer).RegisterPublicRoutes(r.Engine)
	}

	// Swagger API documentation (no auth required)
	r.Engine.GET(middleware.DocsPathPrefix+"*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL(middleware.DocsPathPrefix+"doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

		handlers.NewVersionHandler(handlers.VersionInfo{
		Version:   cfg.Version,
		Commit:    cfg.Commit,
		BuildDate: cfg.BuildDate,
	}).RegisterPublicRoutes(r.Engine)

	// Public API routes
	public := r.Engine.Group("/api")
	authHandler := handlers.NewAuthHandler(deps.Authenticator, deps.Store, logger)
	authHandler.RegisterPublicRoutes(public)
	handlers.NewVerifyHandler(deps.Verifier, logger).RegisterPublicRoutes(public)

	// Authenticated API routes
	protected := r.Engine.Group("/api")
	protected.Use(middleware.AuthMiddleware(deps.Authenticator, logger))

	authHandler.RegisterRoutes(protected)
	handlers.NewCertificatesHandler(deps.Certificates, logger).RegisterRoutes(protected)
	handlers.NewCoursesHandler(deps.Store, logger).RegisterRoutes(protected)

	r.logger.Info().Msg("API router initialized")

	return r, nil
}
