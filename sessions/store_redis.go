package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "hsportal:session:"

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// between portal instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. ttl is applied on every write.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// OpenRedisStore connects and pings before returning.
func OpenRedisStore(ctx context.Context, opts *redis.Options, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[sessions OpenRedisStore] ping %s: %w", opts.Addr, err)
	}
	return NewRedisStore(client, ttl), nil
}

func (s *RedisStore) Get(ctx context.Context, namespace, key string) (string, error) {
	if err := validateNamespace(namespace, key); err != nil {
		return "", err
	}
	value, err := s.client.Get(ctx, redisKey(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("[sessions RedisStore.Get] %w", err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, namespace, key, value string) error {
	if err := validateNamespace(namespace, key); err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(namespace, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("[sessions RedisStore.Set] %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	if namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, redisKey(namespace, key))
	}
	if err := s.client.Del(ctx, redisKeys...).Err(); err != nil {
		return fmt.Errorf("[sessions RedisStore.Delete] %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(namespace, key string) string {
	return redisKeyPrefix + namespace + ":" + key
}
