// Package cache provides the currency cache used by the currency service.
// Redis is shared across instances; the in-memory cache serves single
// instances and tests.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Backend names reported in metrics and logs
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultCurrencyTTL is used when a cache is created without a TTL
const DefaultCurrencyTTL = 10 * time.Minute

// CurrencyCache caches currencies by ISO code and the published list.
// A miss returns nil without error.
type CurrencyCache interface {
	Get(ctx context.Context, code string) (*valueobject.Currency, error)
	Set(ctx context.Context, c *valueobject.Currency) error
	GetPublished(ctx context.Context) ([]valueobject.Currency, error)
	SetPublished(ctx context.Context, currencies []valueobject.Currency) error
	// Invalidate drops the currency and the published list
	Invalidate(ctx context.Context, code string) error
	Backend() string
	Close() error
}

type keyBuilder struct {
	prefix string
}

func (k keyBuilder) currency(code string) string {
	return k.prefix + ":currency:" + strings.ToUpper(strings.TrimSpace(code))
}

func (k keyBuilder) published() string {
	return k.prefix + ":currencies:published"
}
