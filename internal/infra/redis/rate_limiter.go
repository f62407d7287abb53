package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter on top of redis. A nil *RateLimiter
// allows everything, so callers can wire it only when redis is configured.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r == nil {
		return true, nil
	}
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

// LoginKey scopes the limiter per client address to slow credential stuffing.
func LoginKey(remoteAddr string) string {
	return fmt.Sprintf("rate_limit:login:%s", remoteAddr)
}

// RunKey scopes the limiter per user so one caller cannot flood the queue.
func RunKey(userID int64) string {
	return fmt.Sprintf("rate_limit:run:%d", userID)
}
