package clcaclient

import (
	"context"

	"golang.org/x/time/rate"
)

type RateLimiter struct{ l *rate.Limiter }

// NewRateLimiter builds a limiter from a per-minute budget.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	if rpm <= 0 {
		rpm = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		l: rate.NewLimiter(rate.Limit(rpm)/60, burst),
	}
}

func (r *RateLimiter) Wait(ctx context.Context) error { return r.l.Wait(ctx) }
