package runner

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound API submissions to a fixed call rate. A
// non-positive rate (the -1 config sentinel) disables limiting. Safe to
// share across concurrent submitters.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter admitting callsPerSecond submissions.
func NewRateLimiter(callsPerSecond float64) *RateLimiter {
	if callsPerSecond <= 0 {
		return &RateLimiter{}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(callsPerSecond), 1)}
}

// Wait blocks until the next submission may be dispatched, or the context
// is done. A no-op when limiting is disabled.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
