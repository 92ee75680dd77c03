package catalog

import "context"

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id int) (*Product, error)

	// FindByIDWithPricing loads the product with everything the price
	// calculation needs: tier prices, attribute values and combinations,
	// category and manufacturer mappings
	FindByIDWithPricing(ctx context.Context, id int) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []int) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product
	Delete(ctx context.Context, id int) error
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	FindByID(ctx context.Context, id int) (*Category, error)
	Save(ctx context.Context, category *Category) error
}
