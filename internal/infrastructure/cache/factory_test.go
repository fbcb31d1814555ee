package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/actdesk/backend/internal/infrastructure/config"
)

// unreachable redis: port 1 refuses connections on loopback
var deadRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestFactory_Create(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		c, err := NewFactory(config.CacheConfig{Backend: "none"}, deadRedis).Create()
		require.NoError(t, err)
		assert.IsType(t, NopPreviewCache{}, c)
	})

	t.Run("memory", func(t *testing.T) {
		c, err := NewFactory(config.CacheConfig{Backend: "memory", TTL: time.Minute, MaxEntries: 5}, deadRedis).Create()
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryPreviewCache{}, c)
	})

	t.Run("redis falls back to memory", func(t *testing.T) {
		c, err := NewFactory(config.CacheConfig{Backend: "redis", TTL: time.Minute}, deadRedis,
			WithLogger(zap.NewNop())).Create()
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryPreviewCache{}, c)
	})

	t.Run("redis without fallback fails", func(t *testing.T) {
		_, err := NewFactory(config.CacheConfig{Backend: "redis"}, deadRedis, WithInMemoryFallback(false)).Create()
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewFactory(config.CacheConfig{Backend: "memcached"}, deadRedis).Create()
		assert.Error(t, err)
	})
}
