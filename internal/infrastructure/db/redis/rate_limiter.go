package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

// WindowCounter implements a fixed-window request counter.
// Key format: ratelimit:<key>
type WindowCounter struct {
	client *redis.Client
}

// NewWindowCounter creates a WindowCounter wrapping the given Redis client.
func NewWindowCounter(client *redis.Client) *WindowCounter {
	return &WindowCounter{client: client}
}

// Hit counts one request for key and returns the number of requests seen in
// the current window together with the time left until it resets.
func (w *WindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := rateLimitPrefix + key

	n, err := w.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := w.client.PExpire(ctx, k, window).Err(); err != nil {
			return n, window, fmt.Errorf("rate limit expire: %w", err)
		}
		return n, window, nil
	}

	ttl, err := w.client.PTTL(ctx, k).Result()
	if err != nil {
		return n, window, fmt.Errorf("rate limit ttl: %w", err)
	}
	// A key without expiry would never reset.
	if ttl < 0 {
		if err := w.client.PExpire(ctx, k, window).Err(); err != nil {
			return n, window, fmt.Errorf("rate limit expire: %w", err)
		}
		ttl = window
	}
	return n, ttl, nil
}
