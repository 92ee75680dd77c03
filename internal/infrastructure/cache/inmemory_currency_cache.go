package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// InMemoryCurrencyCache implements CurrencyCache in process memory.
// Entries expire lazily on read.
type InMemoryCurrencyCache struct {
	mu         sync.RWMutex
	currencies map[string]entry[valueobject.Currency]
	published  *entry[[]valueobject.Currency]
	keys       keyBuilder
	ttl        time.Duration
	now        func() time.Time
}

// NewInMemoryCurrencyCache creates an empty cache
func NewInMemoryCurrencyCache(ttl time.Duration) *InMemoryCurrencyCache {
	if ttl <= 0 {
		ttl = DefaultCurrencyTTL
	}
	return &InMemoryCurrencyCache{
		currencies: make(map[string]entry[valueobject.Currency]),
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns a copy of the cached currency or nil on a miss
func (c *InMemoryCurrencyCache) Get(_ context.Context, code string) (*valueobject.Currency, error) {
	key := c.keys.currency(code)

	c.mu.RLock()
	e, ok := c.currencies[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if e.expired(c.now()) {
		c.mu.Lock()
		delete(c.currencies, key)
		c.mu.Unlock()
		return nil, nil
	}
	currency := e.value
	return &currency, nil
}

// Set stores a copy of the currency
func (c *InMemoryCurrencyCache) Set(_ context.Context, currency *valueobject.Currency) error {
	if currency == nil {
		return nil
	}
	c.mu.Lock()
	c.currencies[c.keys.currency(currency.Code)] = entry[valueobject.Currency]{
		value:     *currency,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}

// GetPublished returns a copy of the published list or nil on a miss
func (c *InMemoryCurrencyCache) GetPublished(_ context.Context) ([]valueobject.Currency, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.published == nil || c.published.expired(c.now()) {
		return nil, nil
	}
	return slices.Clone(c.published.value), nil
}

// SetPublished stores a copy of the published list
func (c *InMemoryCurrencyCache) SetPublished(_ context.Context, currencies []valueobject.Currency) error {
	c.mu.Lock()
	c.published = &entry[[]valueobject.Currency]{
		value:     slices.Clone(currencies),
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}

// Invalidate removes the currency and the published list
func (c *InMemoryCurrencyCache) Invalidate(_ context.Context, code string) error {
	c.mu.Lock()
	delete(c.currencies, c.keys.currency(code))
	c.published = nil
	c.mu.Unlock()
	return nil
}

// Backend returns the backend name
func (c *InMemoryCurrencyCache) Backend() string {
	return BackendMemory
}

// Close is a no-op
func (c *InMemoryCurrencyCache) Close() error {
	return nil
}
