package credstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage implements Storage using Redis as the backing store.
// Values are stored under key "credential:<name>" with an optional TTL so a
// shared agent deployment can bound how long an idle pair survives.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStorage creates a Redis-backed storage. Prefix may be empty; a zero
// TTL keeps entries until they are cleared.
func NewRedisStorage(client *redis.Client, prefix string, ttl time.Duration) *RedisStorage {
	if prefix == "" {
		prefix = "credential:"
	}
	return &RedisStorage{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStorage) key(name string) string {
	return r.prefix + name
}

func (r *RedisStorage) Get(ctx context.Context, name string) (string, error) {
	v, err := r.client.Get(ctx, r.key(name)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func (r *RedisStorage) Set(ctx context.Context, name, value string) error {
	return r.client.Set(ctx, r.key(name), value, r.ttl).Err()
}

func (r *RedisStorage) Delete(ctx context.Context, name string) error {
	return r.client.Del(ctx, r.key(name)).Err()
}
