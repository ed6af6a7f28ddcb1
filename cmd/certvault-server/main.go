// Package main is the entrypoint for the certvault server.
//
// @title           certvault API
// @version         1.0
// @description     Certificate issuance and public verification with role-based access.
//
// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT
//
// @host      localhost:8080
// @BasePath  /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Access token from /api/auth/login. Use format: Bearer <token>
//
// @tag.name Auth
// @tag.description Login, registration and token refresh
// @tag.name Users
// @tag.description Authenticated user profile
// @tag.name Certificates
// @tag.description Certificate issuance and lifecycle
// @tag.name Courses
// @tag.description Courses certificates are issued for
// @tag.name Verification
// @tag.description Public certificate verification
// @tag.name System
// @tag.description Health and build information
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MacJediWizard/certvault/internal/api"
	"github.com/MacJediWizard/certvault/internal/auth"
	"github.com/MacJediWizard/certvault/internal/certificates"
	"github.com/MacJediWizard/certvault/internal/config"
	"github.com/MacJediWizard/certvault/internal/db"
	"github.com/MacJediWizard/certvault/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()

	if err := config.LoadDotEnv(); err != nil {
		logger.Error().Err(err).Msg("Failed to load .env file")
		return 1
	}

	cfg := config.LoadServerConfig()
	if !cfg.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Str("env", string(cfg.Environment)).
		Msg("Starting certvault server")

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	// Connect to database
	database, err := db.New(ctx, db.DefaultConfig(cfg.DatabaseURL), logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return 1
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to run database migrations")
		return 1
	}

	if cfg.SeedDefaultData {
		seeded, err := database.SeedDefaults(ctx, db.DefaultSeedUsers)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to seed default data")
			return 1
		}
		if seeded {
			logger.Warn().Msg("Seeded default accounts; change their passwords before exposing this server")
		}
	}

	// Optional Redis for login throttling and a shared rate limit store
	var redisClient *redis.Client
	var throttle auth.LoginThrottle
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Msg("Invalid REDIS_URL")
			return 1
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to Redis")
			return 1
		}

		throttle = auth.NewRedisThrottle(redisClient, auth.ThrottleConfig{
			MaxAttempts: cfg.LoginMaxAttempts,
			Lockout:     cfg.LoginLockout,
		})
		logger.Info().Int("max_attempts", cfg.LoginMaxAttempts).Dur("lockout", cfg.LoginLockout).Msg("Login throttling enabled")
	} else {
		logger.Warn().Msg("REDIS_URL not set; login throttling disabled and rate limits are per process")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics, err := metrics.NewPrometheusMetrics(registry)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register metrics")
		return 1
	}

	collector := metrics.NewCollector(database, promMetrics, logger)
	if err := collector.Start(cfg.MetricsRefreshSchedule); err != nil {
		logger.Error().Err(err).Msg("Failed to start metrics collector")
		return 1
	}
	defer func() {
		<-collector.Stop().Done()
	}()

	// Authentication
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize token manager")
		return 1
	}

	authenticator := auth.NewAuthenticator(database, tokens, auth.AuthenticatorConfig{
		Throttle:              throttle,
		Recorder:              promMetrics,
		AllowPrivilegedSignup: cfg.AllowPrivilegedSignup,
	}, logger)

	routerCfg := api.Config{
		Environment:       cfg.Environment,
		AllowedOrigins:    cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitPeriod:   cfg.RateLimitPeriod,
		Version:           Version,
		Commit:            Commit,
		BuildDate:         BuildDate,
	}

	router, err := api.NewRouter(routerCfg, api.Dependencies{
		Store:         database,
		Authenticator: authenticator,
		Certificates:  certificates.NewService(database, promMetrics, logger),
		Verifier:      certificates.NewVerifier(database, promMetrics, logger),
		Metrics:       promMetrics,
		Gatherer:      registry,
		Redis:         redisClient,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize router")
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	// Start server in background
	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down server")
	case err := <-serveErr:
		logger.Error().Err(err).Msg("HTTP server error")
		return 1
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return 1
	}

	logger.Info().Msg("Server stopped gracefully")
	return 0
}
