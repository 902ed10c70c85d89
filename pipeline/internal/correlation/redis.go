package correlation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps signatures in Redis with native TTL expiry, shared by
// every pipeline instance.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis at url (redis://host:port/db) and
// verifies the connection.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client, for tests.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSignatureTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Mark(ctx context.Context, zone, eventType string) error {
	key := signatureKey(zone, eventType)
	if err := s.client.Set(ctx, key, "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("mark signature %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, zone, eventType string) (bool, error) {
	key := signatureKey(zone, eventType)
	_, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get signature %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
