package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errNilRedis   = errors.New("redis client is nil")
	errMissingKey = errors.New("slot key is required")
)

// RedisConfig holds what the service needs from Redis: the shared audio
// store and the provider slot counter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	PoolSize int
	// Timeout applies to dial, read, write and the startup ping.
	Timeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.PoolSize <= 0 {
		out.PoolSize = 20
	}
	if out.Timeout <= 0 {
		out.Timeout = 2 * time.Second
	}
	return out
}

// OpenRedis connects and checks the server with PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// acquireSlotScript counts in-flight synthesis provider calls under one key
// shared by every API instance. The TTL is refreshed on each acquire so a
// crashed holder's slot frees itself once the fleet goes quiet.
//
// KEYS[1] = slot counter, ARGV[1] = limit, ARGV[2] = ttl in ms.
// Returns 1 when a slot was taken, 0 when the limit is reached.
var acquireSlotScript = redis.NewScript(`
local inflight = redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
if inflight > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return 0
end
return 1
`)

// releaseSlotScript gives a slot back and drops the key when nothing is in flight.
var releaseSlotScript = redis.NewScript(`
if redis.call('DECR', KEYS[1]) <= 0 then
  redis.call('DEL', KEYS[1])
end
return 1
`)

// AcquireSlot takes one of limit provider slots under key.
func AcquireSlot(ctx context.Context, rdb *redis.Client, key string, limit int, ttl time.Duration) (bool, error) {
	switch {
	case rdb == nil:
		return false, errNilRedis
	case key == "":
		return false, errMissingKey
	case limit <= 0:
		return false, fmt.Errorf("slot limit must be positive, got %d", limit)
	case ttl <= 0:
		return false, fmt.Errorf("slot ttl must be positive, got %v", ttl)
	}
	n, err := acquireSlotScript.Run(ctx, rdb, []string{key}, limit, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseSlot returns a slot taken with AcquireSlot.
func ReleaseSlot(ctx context.Context, rdb *redis.Client, key string) error {
	if rdb == nil {
		return errNilRedis
	}
	if key == "" {
		return errMissingKey
	}
	return releaseSlotScript.Run(ctx, rdb, []string{key}).Err()
}
