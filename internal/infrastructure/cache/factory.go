package cache

import (
	"context"
	"fmt"
	"time"

	appinv "github.com/erp/pos/internal/application/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory builds the idempotency store and stock level cache. Both share one
// Redis client when Redis is enabled and reachable, otherwise they fall back
// to process memory.
type Factory struct {
	redisConfig   config.RedisConfig
	logger        *zap.Logger
	allowFallback bool

	client *redis.Client
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis is an error.
// Fallback is allowed by default.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowFallback = allow
	}
}

// NewFactory creates a factory. Connect must be called before the Create methods
// can hand out Redis-backed components.
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:   cfg,
		logger:        zap.NewNop(),
		allowFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect opens the Redis client when Redis is enabled. A connection failure
// is logged and swallowed if fallback is allowed.
func (f *Factory) Connect(ctx context.Context) error {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory cache components")
		return nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		if !f.allowFallback {
			return fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory cache components. "+
			"Idempotency keys will not be shared between instances.",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return nil
	}

	f.client = client
	f.logger.Info("Connected to Redis", zap.String("addr", f.redisConfig.Addr()))
	return nil
}

// UsingRedis reports whether components are Redis-backed
func (f *Factory) UsingRedis() bool {
	return f.client != nil
}

// Client returns the shared Redis client, nil when running in memory
func (f *Factory) Client() *redis.Client {
	return f.client
}

// CreateIdempotencyStore returns a Redis or in-memory idempotency store
func (f *Factory) CreateIdempotencyStore() shared.IdempotencyStore {
	if f.client != nil {
		return NewRedisIdempotencyStore(f.client, defaultIdempotencyPrefix)
	}
	return NewInMemoryIdempotencyStore()
}

// CreateStockLevelCache returns a Redis or in-memory stock level cache.
// A non-positive ttl disables caching and returns nil.
func (f *Factory) CreateStockLevelCache(ttl time.Duration) appinv.StockLevelCache {
	if ttl <= 0 {
		return nil
	}
	if f.client != nil {
		return NewRedisStockLevelCache(f.client, ttl)
	}
	return NewInMemoryStockLevelCache(ttl)
}

// Close closes the shared Redis client
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
