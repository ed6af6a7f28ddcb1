package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestThrottle(t *testing.T, maxAttempts int) (*RedisThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisThrottle(client, ThrottleConfig{MaxAttempts: maxAttempts, Lockout: time.Minute}), mr
}

func TestRedisThrottle_LocksAfterMaxAttempts(t *testing.T) {
	throttle, _ := newTestThrottle(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, throttle.Check(ctx, "admin@system.com", "10.0.0.1"))
		require.NoError(t, throttle.RecordFailure(ctx, "admin@system.com", "10.0.0.1"))
	}

	err := throttle.Check(ctx, "admin@system.com", "10.0.0.1")
	assert.True(t, errors.Is(err, ErrLoginRateLimited))

	err = throttle.Check(ctx, "admin@system.com", "10.9.9.9")
	assert.True(t, errors.Is(err, ErrLoginRateLimited), "email counter applies from any address")

	err = throttle.Check(ctx, "other@system.com", "10.0.0.1")
	assert.True(t, errors.Is(err, ErrLoginRateLimited), "address counter applies to any email")

	assert.NoError(t, throttle.Check(ctx, "other@system.com", "10.9.9.9"))
}

func TestRedisThrottle_WindowExpires(t *testing.T) {
	throttle, mr := newTestThrottle(t, 1)
	ctx := context.Background()

	require.NoError(t, throttle.RecordFailure(ctx, "a@b.c", ""))
	assert.True(t, errors.Is(throttle.Check(ctx, "a@b.c", ""), ErrLoginRateLimited))

	mr.FastForward(2 * time.Minute)
	assert.NoError(t, throttle.Check(ctx, "a@b.c", ""))
}

func TestRedisThrottle_Reset(t *testing.T) {
	throttle, _ := newTestThrottle(t, 1)
	ctx := context.Background()

	require.NoError(t, throttle.RecordFailure(ctx, "a@b.c", "10.0.0.1"))
	require.NoError(t, throttle.Reset(ctx, "a@b.c", "10.0.0.1"))
	assert.NoError(t, throttle.Check(ctx, "a@b.c", "10.0.0.1"))
}

func TestRedisThrottle_Unavailable(t *testing.T) {
	throttle, mr := newTestThrottle(t, 1)
	mr.Close()

	err := throttle.Check(context.Background(), "a@b.c", "")
	assert.True(t, errors.Is(err, ErrThrottleUnavailable))
}
