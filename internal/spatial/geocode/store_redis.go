package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "geocode:municipality:"

// RedisStore caches resolved municipality names in Redis so the cache
// survives restarts and is shared across processes.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a store over an existing Redis client. A zero TTL keeps
// entries indefinitely.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, code string) (string, bool, error) {
	name, err := s.client.Get(ctx, redisKeyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return name, true, nil
}

func (s *RedisStore) Set(ctx context.Context, code, name string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+code, name, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
