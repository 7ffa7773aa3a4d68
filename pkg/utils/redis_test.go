package utils

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisConfig_Defaults(t *testing.T) {
	c := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if c.PoolSize != 20 || c.Timeout != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestSlots_ValidateArguments(t *testing.T) {
	ctx := context.Background()
	if _, err := AcquireSlot(ctx, nil, "k", 1, time.Second); err != errNilRedis {
		t.Fatalf("expected nil client error, got %v", err)
	}
	if err := ReleaseSlot(ctx, nil, "k"); err != errNilRedis {
		t.Fatalf("expected nil client error, got %v", err)
	}

	// Argument checks run before any round trip.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()
	if _, err := AcquireSlot(ctx, rdb, "", 1, time.Second); err != errMissingKey {
		t.Fatalf("expected missing key error, got %v", err)
	}
	if _, err := AcquireSlot(ctx, rdb, "k", 0, time.Second); err == nil {
		t.Fatalf("expected error for zero limit")
	}
	if _, err := AcquireSlot(ctx, rdb, "k", 1, 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
