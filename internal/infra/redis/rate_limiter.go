// File: internal/infra/redis/rate_limiter.go
package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter. The first hit in a window sets the
// key's TTL; every hit increments it.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

// EndpointKey builds the counter key for a caller hitting an endpoint. The
// caller part is an IP for anonymous routes and a user id for authenticated
// ones.
func EndpointKey(caller, endpoint string) string {
	return fmt.Sprintf("rate_limit:%s:%s", caller, endpoint)
}
