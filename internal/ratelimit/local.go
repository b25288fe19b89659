package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// LocalLimiter keeps one token bucket per key in process memory. Suitable
// for single-instance deployments and tests; multi-instance deployments
// should configure the redis limiter instead.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Make sure we conform to Limiter interface
var _ Limiter = (*LocalLimiter)(nil)

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string, perMinute int) (bool, error) {
	if perMinute <= 0 {
		return true, nil
	}

	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok || limiter.Burst() != perMinute {
		limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow(), nil
}
