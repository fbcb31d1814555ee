package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/actdesk/backend/internal/infrastructure/config"
)

// Factory builds the preview cache selected by configuration
type Factory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// the in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Create returns the configured cache: memory, redis or none
func (f *Factory) Create() (PreviewCache, error) {
	switch f.cacheConfig.Backend {
	case "none":
		f.logger.Info("preview cache disabled")
		return NopPreviewCache{}, nil
	case "memory", "":
		return f.createInMemory(), nil
	case "redis":
		store, err := NewRedisPreviewCache(f.redisConfig, f.cacheConfig.TTL)
		if err == nil {
			f.logger.Info("using Redis preview cache", zap.String("addr", f.redisConfig.Addr()))
			return store, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis preview cache unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory preview cache", zap.Error(err))
		return f.createInMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.cacheConfig.Backend)
	}
}

func (f *Factory) createInMemory() *InMemoryPreviewCache {
	f.logger.Info("using in-memory preview cache",
		zap.Duration("ttl", f.cacheConfig.TTL),
		zap.Int("max_entries", f.cacheConfig.MaxEntries),
	)
	return NewInMemoryPreviewCache(f.cacheConfig.TTL, f.cacheConfig.MaxEntries)
}
