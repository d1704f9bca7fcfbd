package cache

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// WindowLimiter allows limit hits per key in fixed windows, counted with
// INCR and expired by the first hit of each window. Counters are shared by
// every server process using the same Redis.
type WindowLimiter struct {
	client *goredis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewWindowLimiter(client *goredis.Client, prefix string, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("rate key is required")
	}

	redisKey := "rate:" + l.prefix + ":" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("increment rate key: %w", err)
	}
	if count == 1 {
		err = l.client.Expire(ctx, redisKey, l.window).Err()
		if err != nil {
			return false, fmt.Errorf("set rate key ttl: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}
