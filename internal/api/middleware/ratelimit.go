package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewRateLimiter creates a Gin middleware for per-client rate limiting.
// requests is the number of requests allowed per period.
// period is a duration string (e.g., "1m", "1h", "24h").
// When client is non-nil the counters live in Redis and are shared across replicas.
func NewRateLimiter(requests int64, period string, client *redis.Client) (gin.HandlerFunc, error) {
	duration, err := time.ParseDuration(period)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit period %q: %w", period, err)
	}

	rate := limiter.Rate{
		Period: duration,
		Limit:  requests,
	}

	var store limiter.Store
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix: "certvault:ratelimit",
		})
		if err != nil {
			return nil, fmt.Errorf("create redis rate limit store: %w", err)
		}
	} else {
		store = memory.NewStore()
	}

	return mgin.NewMiddleware(limiter.New(store, rate)), nil
}
