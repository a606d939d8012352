package engine

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces request starts across all workers of a batch.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows perSecond request starts with the given burst.
// It returns nil, which never waits, when perSecond is not positive.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a request may start or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
