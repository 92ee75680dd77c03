package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCurrencyCache implements CurrencyCache using Redis with JSON values
type RedisCurrencyCache struct {
	client     *redis.Client
	ownsClient bool
	keys       keyBuilder
	ttl        time.Duration
	logger     *zap.Logger
}

// NewRedisCurrencyCache connects to Redis and verifies the connection
func NewRedisCurrencyCache(cfg RedisConfig, prefix string, ttl time.Duration, logger *zap.Logger) (*RedisCurrencyCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisCurrencyCacheWithClient(client, prefix, ttl, logger)
	c.ownsClient = true
	return c, nil
}

// NewRedisCurrencyCacheWithClient wraps an existing client. The caller keeps
// ownership of the client.
func NewRedisCurrencyCacheWithClient(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *RedisCurrencyCache {
	if ttl <= 0 {
		ttl = DefaultCurrencyTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCurrencyCache{
		client: client,
		keys:   keyBuilder{prefix: prefix},
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached currency or nil on a miss
func (c *RedisCurrencyCache) Get(ctx context.Context, code string) (*valueobject.Currency, error) {
	var currency valueobject.Currency
	found, err := c.load(ctx, c.keys.currency(code), &currency)
	if err != nil || !found {
		return nil, err
	}
	return &currency, nil
}

// Set stores the currency under its code
func (c *RedisCurrencyCache) Set(ctx context.Context, currency *valueobject.Currency) error {
	if currency == nil {
		return nil
	}
	return c.store(ctx, c.keys.currency(currency.Code), currency)
}

// GetPublished returns the cached published list or nil on a miss
func (c *RedisCurrencyCache) GetPublished(ctx context.Context) ([]valueobject.Currency, error) {
	var currencies []valueobject.Currency
	found, err := c.load(ctx, c.keys.published(), &currencies)
	if err != nil || !found {
		return nil, err
	}
	return currencies, nil
}

// SetPublished stores the published list
func (c *RedisCurrencyCache) SetPublished(ctx context.Context, currencies []valueobject.Currency) error {
	return c.store(ctx, c.keys.published(), currencies)
}

// Invalidate removes the currency and the published list
func (c *RedisCurrencyCache) Invalidate(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, c.keys.currency(code), c.keys.published()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate currency %s: %w", code, err)
	}
	return nil
}

// Backend returns the backend name
func (c *RedisCurrencyCache) Backend() string {
	return BackendRedis
}

// Close closes the client if the cache created it
func (c *RedisCurrencyCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

func (c *RedisCurrencyCache) load(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s from cache: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Dropping corrupted cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

func (c *RedisCurrencyCache) store(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s to cache: %w", key, err)
	}
	return nil
}
