package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists blobs in redis. It serves deployments where tile
// spill-over should be shared between viewer instances or where local
// disk is unavailable.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds parameters for creating a RedisStore.
type RedisConfig struct {
	// Addr is the redis host:port.
	Addr string

	// Prefix namespaces keys; "tile:" when empty.
	Prefix string

	// TTL expires stored blobs; 0 keeps them until deleted.
	TTL time.Duration

	// DB selects the redis database.
	DB int
}

// NewRedisStore creates a store over a new redis client.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	if cfg.Prefix == "" {
		cfg.Prefix = "tile:"
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB}),
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
}

// NewRedisStoreWithClient wraps an existing client. Close will close it.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "tile:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("blob: redis put %q: %w", key, err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob: redis get %q: %w", key, err)
	}
	return data, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("blob: redis delete %q: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
