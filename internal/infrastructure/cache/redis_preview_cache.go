package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/actdesk/backend/internal/infrastructure/config"
)

const defaultPreviewKeyPrefix = "actdesk:preview:"

// RedisPreviewCache implements PreviewCache on Redis so several server
// processes share rendered previews
type RedisPreviewCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisPreviewCache connects to Redis and verifies the connection
func NewRedisPreviewCache(cfg config.RedisConfig, ttl time.Duration) (*RedisPreviewCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisPreviewCacheWithClient(client, "", ttl), nil
}

// NewRedisPreviewCacheWithClient wraps an existing client
func NewRedisPreviewCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisPreviewCache {
	if keyPrefix == "" {
		keyPrefix = defaultPreviewKeyPrefix
	}
	return &RedisPreviewCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached bytes; a missing key is a miss, not an error
func (c *RedisPreviewCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read preview cache: %w", err)
	}
	return data, true, nil
}

// Set stores data with the configured TTL
func (c *RedisPreviewCache) Set(ctx context.Context, key string, data []byte) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write preview cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisPreviewCache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client
func (c *RedisPreviewCache) Client() *redis.Client {
	return c.client
}

var _ PreviewCache = (*RedisPreviewCache)(nil)
