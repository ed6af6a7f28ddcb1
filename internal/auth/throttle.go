package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle tracks failed logins and locks out repeat offenders.
type LoginThrottle interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email, ip string) error
}

// ThrottleConfig holds login throttle tuning parameters.
type ThrottleConfig struct {
	MaxAttempts int
	Lockout     time.Duration
	KeyPrefix   string
}

// RedisThrottle is a fixed-window LoginThrottle backed by Redis counters.
// Counters are kept per email and per source IP.
type RedisThrottle struct {
	redis  redis.UniversalClient
	config ThrottleConfig
}

// NewRedisThrottle creates a RedisThrottle.
func NewRedisThrottle(client redis.UniversalClient, cfg ThrottleConfig) *RedisThrottle {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 15 * time.Minute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "certvault:login"
	}
	return &RedisThrottle{redis: client, config: cfg}
}

// Check returns ErrLoginRateLimited once either counter reaches the limit.
func (t *RedisThrottle) Check(ctx context.Context, email, ip string) error {
	for _, key := range t.keys(email, ip) {
		count, err := t.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
		}
		if count >= int64(t.config.MaxAttempts) {
			return ErrLoginRateLimited
		}
	}
	return nil
}

// RecordFailure increments both counters, starting the window on the first hit.
func (t *RedisThrottle) RecordFailure(ctx context.Context, email, ip string) error {
	for _, key := range t.keys(email, ip) {
		count, err := t.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
		}
		if count == 1 {
			if err := t.redis.Expire(ctx, key, t.config.Lockout).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
			}
		}
	}
	return nil
}

// Reset clears the counters after a successful login.
func (t *RedisThrottle) Reset(ctx context.Context, email, ip string) error {
	if err := t.redis.Del(ctx, t.keys(email, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	return nil
}

func (t *RedisThrottle) keys(email, ip string) []string {
	keys := []string{t.config.KeyPrefix + ":email:" + strings.ToLower(email)}
	if ip != "" {
		keys = append(keys, t.config.KeyPrefix+":ip:"+ip)
	}
	return keys
}
