package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Rate is a token bucket: PerSecond refill, Burst capacity. Zero PerSecond means unlimited.
type Rate struct {
	PerSecond float64
	Burst     int
}

// Limiter paces outbound calls per limit class so a client stays under the server budget
type Limiter struct {
	limiters map[RateLimitType]*rate.Limiter
}

// NewLimiter builds one bucket per configured class. Classes without a rate fall back
// to the default class, or are unlimited when no default is configured.
func NewLimiter(rates map[RateLimitType]Rate) *Limiter {
	l := &Limiter{limiters: make(map[RateLimitType]*rate.Limiter, len(rates))}
	for class, r := range rates {
		if r.PerSecond <= 0 {
			continue
		}
		burst := r.Burst
		if burst < 1 {
			burst = 1
		}
		l.limiters[class] = rate.NewLimiter(rate.Limit(r.PerSecond), burst)
	}
	return l
}

// Wait blocks until the class has a token or ctx is done
func (l *Limiter) Wait(ctx context.Context, class RateLimitType) error {
	if l == nil {
		return nil
	}
	limiter, ok := l.limiters[class]
	if !ok {
		limiter, ok = l.limiters[RateLimitTypeDefault]
	}
	if !ok {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait (%s): %w", class, err)
	}
	return nil
}
