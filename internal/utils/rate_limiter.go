// internal/utils/rate_limiter.go
package utils

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps the golang.org/x/time/rate limiter. It paces page
// navigations so a run does not hammer a site.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter with the given rate (navigations
// per second). A non-positive rate disables limiting.
func NewRateLimiter(navigationsPerSecond float64) *RateLimiter {
	if navigationsPerSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(navigationsPerSecond), 1),
	}
}

// Wait blocks until the rate limiter allows the next navigation.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Allow reports whether a navigation may happen now.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// SetLimit changes the rate limit.
func (rl *RateLimiter) SetLimit(newLimit rate.Limit) {
	rl.limiter.SetLimit(newLimit)
}
