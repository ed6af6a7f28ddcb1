package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult represents the result of a health check.
type HealthCheckResult struct {
	Status   HealthStatus   `json:"status"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status HealthStatus                  `json:"status"`
	Checks map[string]*HealthCheckResult `json:"checks,omitempty"`
}

// DatabaseHealthChecker defines the interface for database health checking.
type DatabaseHealthChecker interface {
	Ping(ctx context.Context) error
	Health() map[string]any
}

// RedisHealthChecker pings the Redis server backing the login throttle and rate limiter.
type RedisHealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health-related HTTP endpoints.
type HealthHandler struct {
	db     DatabaseHealthChecker
	redis  RedisHealthChecker
	logger zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when not configured.
func NewHealthHandler(db DatabaseHealthChecker, redis RedisHealthChecker, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		logger: logger.With().Str("component", "health_handler").Logger(),
	}
}

// RegisterPublicRoutes registers health check routes that don't require authentication.
func (h *HealthHandler) RegisterPublicRoutes(r *gin.Engine) {
	health := r.Group("/health")
	{
		health.GET("", h.Overall)
		health.GET("/live", h.Live)
	}
}

// Live reports that the process is serving requests.
//
//	@Summary		Liveness check
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health/live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, &HealthResponse{Status: HealthStatusHealthy})
}

// Overall returns the overall server health status.
//
//	@Summary		Health check
//	@Description	Reports database and Redis status. Answers 503 when a dependency is unhealthy.
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/health [get]
func (h *HealthHandler) Overall(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := &HealthResponse{
		Status: HealthStatusHealthy,
		Checks: map[string]*HealthCheckResult{
			"database": h.checkDatabase(ctx),
			"redis":    h.checkRedis(ctx),
		},
	}

	for _, check := range response.Checks {
		if check.Status == HealthStatusUnhealthy {
			response.Status = HealthStatusUnhealthy
		}
	}

	if response.Status == HealthStatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// checkDatabase performs a database health check.
func (h *HealthHandler) checkDatabase(ctx context.Context) *HealthCheckResult {
	start := time.Now()
	result := &HealthCheckResult{
		Status: HealthStatusHealthy,
	}

	if h.db == nil {
		result.Status = HealthStatusUnhealthy
		result.Error = "database not configured"
		result.Duration = time.Since(start).String()
		return result
	}

	err := h.db.Ping(ctx)
	result.Duration = time.Since(start).String()

	if err != nil {
		result.Status = HealthStatusUnhealthy
		result.Error = "database ping failed"
		h.logger.Warn().Err(err).Msg("database health check failed")
		return result
	}

	// Include pool stats
	result.Details = h.db.Health()

	return result
}

// checkRedis performs a Redis health check. Redis is optional.
func (h *HealthHandler) checkRedis(ctx context.Context) *HealthCheckResult {
	start := time.Now()
	result := &HealthCheckResult{
		Status: HealthStatusHealthy,
	}

	if h.redis == nil {
		result.Details = map[string]any{"configured": false}
		result.Duration = time.Since(start).String()
		return result
	}

	err := h.redis.Ping(ctx)
	result.Duration = time.Since(start).String()

	if err != nil {
		result.Status = HealthStatusUnhealthy
		result.Error = "redis unreachable"
		h.logger.Warn().Err(err).Msg("redis health check failed")
		return result
	}

	result.Details = map[string]any{"configured": true}

	return result
}

// RedisPinger adapts a go-redis client to RedisHealthChecker.
type RedisPinger func(ctx context.Context) error

// Ping calls f.
func (f RedisPinger) Ping(ctx context.Context) error {
	return f(ctx)
}
