package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eventhub/auth-gateway/internal/core/ports"
)

const (
	defaultLimit  = 60
	defaultWindow = time.Minute
)

// RateLimiter is a fixed-window counter shared by every gateway instance.
// Key format: ratelimit:<key>. Each window's counter expires on its own, so
// no sweeper is needed.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter allows limit hits per key within window.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow records one hit for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	k := l.key(key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return ports.RateDecision{Allowed: true}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := int(incr.Val())
	if count <= l.limit {
		return ports.RateDecision{Allowed: true, Remaining: l.limit - count}, nil
	}

	retry := ttl.Val()
	if retry <= 0 {
		retry = l.window
	}
	return ports.RateDecision{Allowed: false, RetryAfter: retry}, nil
}

func (l *RateLimiter) key(key string) string {
	return "ratelimit:" + key
}
