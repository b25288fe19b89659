package ratelimit

import (
	"context"
	"fmt"
	"time"

	r "github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in fixed one-minute windows. The counter key
// carries the window stamp so expiry handles cleanup.
type RedisLimiter struct {
	rdb *r.Client
}

// Make sure we conform to Limiter interface
var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(addr, password string) *RedisLimiter {
	return &RedisLimiter{
		rdb: r.NewClient(&r.Options{Addr: addr, Password: password}),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, perMinute int) (bool, error) {
	if perMinute <= 0 {
		return true, nil
	}

	window := time.Now().Unix() / 60
	counterKey := fmt.Sprintf("ratelimit:%s:%d", key, window)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, counterKey)
	pipe.Expire(ctx, counterKey, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= int64(perMinute), nil
}
