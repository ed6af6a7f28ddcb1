// Package config provides configuration management for certvault.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// minJWTSecretLength matches the HS256 key size.
const minJWTSecretLength = 32

// ServerConfig holds server configuration loaded from environment variables.
// It is read once at startup and not modified afterwards.
type ServerConfig struct {
	Environment Environment
	ListenAddr  string
	DatabaseURL string
	RedisURL    string // optional; enables login throttling and a shared rate limit store

	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	LoginMaxAttempts int
	LoginLockout     time.Duration

	RateLimitRequests int64
	RateLimitPeriod   string
	CORSOrigins       []string

	SeedDefaultData        bool
	AllowPrivilegedSignup  bool
	MetricsRefreshSchedule string
	ShutdownTimeout        time.Duration
}

// LoadDotEnv loads variables from a .env file if one exists. Variables
// already set in the environment take precedence.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadServerConfig reads server configuration from environment variables.
func LoadServerConfig() ServerConfig {
	env := Environment(os.Getenv("ENV"))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		env = EnvDevelopment
	}

	loginMax := getEnvInt("LOGIN_MAX_ATTEMPTS", 5)
	if loginMax <= 0 {
		loginMax = 5
	}

	rateLimit := getEnvInt("RATE_LIMIT_REQUESTS", 100)
	if rateLimit <= 0 {
		rateLimit = 100
	}

	return ServerConfig{
		Environment:            env,
		ListenAddr:             getEnvString("LISTEN_ADDR", ":8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTIssuer:              getEnvString("JWT_ISSUER", "certvault"),
		AccessTokenTTL:         getEnvDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL:        getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		LoginMaxAttempts:       loginMax,
		LoginLockout:           getEnvDuration("LOGIN_LOCKOUT", 15*time.Minute),
		RateLimitRequests:      int64(rateLimit),
		RateLimitPeriod:        getEnvString("RATE_LIMIT_PERIOD", "1m"),
		CORSOrigins:            getEnvList("CORS_ORIGINS"),
		SeedDefaultData:        getEnvBool("SEED_DEFAULT_DATA", env != EnvProduction),
		AllowPrivilegedSignup:  getEnvBool("ALLOW_PRIVILEGED_SIGNUP", false),
		MetricsRefreshSchedule: getEnvString("METRICS_REFRESH_SCHEDULE", "@every 1m"),
		ShutdownTimeout:        getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// Validate checks the settings the server cannot start without.
func (c ServerConfig) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if len(c.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLength))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL"))
	}
	if _, err := time.ParseDuration(c.RateLimitPeriod); err != nil {
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT_PERIOD %q", c.RateLimitPeriod))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the server runs in production.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

func getEnvString(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

// getEnvBool reads a boolean from an environment variable, returning the default if unset or invalid.
func getEnvBool(key string, defaultVal bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultVal
	}
}

// getEnvInt reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvDuration reads a duration such as "15m", returning the default if unset, invalid or not positive.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
