package ratelimit

import (
	"context"

	"github.com/synthmesh/datagen-api/internal/config"
	"go.uber.org/zap"
)

// Limiter bounds job-creation throughput per customer.
type Limiter interface {
	Allow(ctx context.Context, key string, perMinute int) (bool, error)
}

// New returns the redis-backed limiter when an address is configured,
// otherwise a process-local one.
func New(cfg config.RateLimit) Limiter {
	if cfg.RedisAddr != "" {
		zap.S().Named("ratelimit").Infof("using redis limiter at %s", cfg.RedisAddr)
		return NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword)
	}
	zap.S().Named("ratelimit").Info("using local limiter")
	return NewLocalLimiter()
}
