// Package currency declares persistence contracts for store currencies.
// The Currency type itself lives in valueobject because Money carries it.
package currency

import (
	"context"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Repository defines the interface for currency persistence
type Repository interface {
	// FindByCode finds a published currency by its ISO code, case-insensitive
	FindByCode(ctx context.Context, code string) (*valueobject.Currency, error)

	FindByID(ctx context.Context, id int) (*valueobject.Currency, error)

	// ListPublished returns published currencies by display order
	ListPublished(ctx context.Context) ([]valueobject.Currency, error)

	Save(ctx context.Context, c *valueobject.Currency) error
}
