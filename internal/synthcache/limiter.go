package synthcache

import (
	"context"
	"time"

	"voice-agent/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter caps in-flight provider calls across every instance using the
// shared Redis counter script.
type RedisLimiter struct {
	rdb   *redis.Client
	key   string
	limit int
	ttl   time.Duration
}

func NewRedisLimiter(rdb *redis.Client, key string, limit int, ttl time.Duration) *RedisLimiter {
	if key == "" {
		key = "synth:inflight"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisLimiter{rdb: rdb, key: key, limit: limit, ttl: ttl}
}

func (l *RedisLimiter) Acquire(ctx context.Context) (func(), error) {
	ok, err := utils.AcquireSlot(ctx, l.rdb, l.key, l.limit, l.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProviderBusy
	}
	return func() {
		_ = utils.ReleaseSlot(context.WithoutCancel(ctx), l.rdb, l.key)
	}, nil
}
