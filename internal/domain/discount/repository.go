package discount

import "context"

// Repository defines the interface for discount persistence
type Repository interface {
	FindByID(ctx context.Context, id int) (*Discount, error)

	// FindAppliedToProduct returns discounts assigned to the product itself
	// or, for category and manufacturer discounts, to one of the given
	// categories or manufacturers
	FindAppliedToProduct(ctx context.Context, productID int, categoryIDs, manufacturerIDs []int) ([]*Discount, error)

	Save(ctx context.Context, d *Discount) error
}

// UsageRepository counts how often discounts were redeemed
type UsageRepository interface {
	// CountUsage counts redemptions of the discount, restricted to a
	// customer when customerID is not nil
	CountUsage(ctx context.Context, discountID int, customerID *int) (int64, error)

	Record(ctx context.Context, usage *UsageHistory) error
}
