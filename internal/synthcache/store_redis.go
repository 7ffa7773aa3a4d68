package synthcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisMetaPrefix  = "synth:meta:"
	redisAudioPrefix = "synth:audio:"
)

// RedisStore shares synthesized audio across API instances. Metadata and
// bytes are written in one MULTI so readers never see one without the other.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Put(ctx context.Context, a Artifact, data []byte, ttl time.Duration) error {
	meta, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisMetaPrefix+a.Key, meta, ttl)
		p.Set(ctx, redisAudioPrefix+a.Key, data, ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Get(ctx context.Context, key string) (Artifact, bool, error) {
	raw, err := s.rdb.Get(ctx, redisMetaPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, err
	}
	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return Artifact{}, false, fmt.Errorf("synthcache: decode meta %s: %w", key, err)
	}
	return a, true, nil
}

func (s *RedisStore) Audio(ctx context.Context, key string) (Artifact, []byte, error) {
	var metaCmd, audioCmd *redis.StringCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		metaCmd = p.Get(ctx, redisMetaPrefix+key)
		audioCmd = p.Get(ctx, redisAudioPrefix+key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Artifact{}, nil, err
	}
	meta, err := metaCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return Artifact{}, nil, ErrNotFound
	}
	if err != nil {
		return Artifact{}, nil, err
	}
	data, err := audioCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return Artifact{}, nil, ErrNotFound
	}
	if err != nil {
		return Artifact{}, nil, err
	}
	var a Artifact
	if err := json.Unmarshal(meta, &a); err != nil {
		return Artifact{}, nil, fmt.Errorf("synthcache: decode meta %s: %w", key, err)
	}
	return a, data, nil
}
