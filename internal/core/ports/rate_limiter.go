package ports

import (
	"context"
	"time"
)

// RateDecision is the outcome of one rate-limit check.
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter counts hits per key over a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}
