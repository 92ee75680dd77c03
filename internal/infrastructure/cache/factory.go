package cache

import (
	"fmt"

	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// CurrencyCacheFactory creates the currency cache configured for the store
type CurrencyCacheFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*CurrencyCacheFactory)

// WithLogger sets the logger for the factory and the caches it creates
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *CurrencyCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory cache. Fallback is on by default.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *CurrencyCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewCurrencyCacheFactory creates a new factory
func NewCurrencyCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *CurrencyCacheFactory {
	f := &CurrencyCacheFactory{
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

// Create returns the configured backend. With the redis backend it falls
// back to memory when Redis cannot be reached and fallback is allowed.
func (f *CurrencyCacheFactory) Create() (CurrencyCache, error) {
	if f.cacheConfig.Backend == BackendMemory {
		f.logger.Info("Using in-memory currency cache")
		return NewInMemoryCurrencyCache(f.cacheConfig.CurrencyTTL), nil
	}

	c, err := NewRedisCurrencyCache(RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.cacheConfig.KeyPrefix, f.cacheConfig.CurrencyTTL, f.logger)
	if err == nil {
		f.logger.Info("Using Redis currency cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis currency cache unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory currency cache. "+
		"Rate changes are then only visible to this instance after the TTL.",
		zap.Error(err),
	)
	return NewInMemoryCurrencyCache(f.cacheConfig.CurrencyTTL), nil
}
