package persistence

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/discount"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDiscountRepository implements discount.Repository using GORM.
// Assignments live in the discount_applied_to_* mapping tables.
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewGormDiscountRepository creates a new GormDiscountRepository
func NewGormDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// FindByID finds a discount by its ID
func (r *GormDiscountRepository) FindByID(ctx context.Context, id int) (*discount.Discount, error) {
	var d discount.Discount
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindAppliedToProduct returns sku discounts mapped to the product and
// category or manufacturer discounts mapped to one of the given IDs
func (r *GormDiscountRepository) FindAppliedToProduct(ctx context.Context, productID int, categoryIDs, manufacturerIDs []int) ([]*discount.Discount, error) {
	db := r.db.WithContext(ctx)

	cond := db.Where(
		"discounts.discount_type_id = ? AND discounts.id IN (SELECT discount_id FROM discount_applied_to_products WHERE product_id = ?)",
		discount.AssignedToSkus, productID,
	)
	if len(categoryIDs) > 0 {
		cond = cond.Or(
			"discounts.discount_type_id = ? AND discounts.id IN (SELECT discount_id FROM discount_applied_to_categories WHERE category_id IN ?)",
			discount.AssignedToCategories, categoryIDs,
		)
	}
	if len(manufacturerIDs) > 0 {
		cond = cond.Or(
			"discounts.discount_type_id = ? AND discounts.id IN (SELECT discount_id FROM discount_applied_to_manufacturers WHERE manufacturer_id IN ?)",
			discount.AssignedToManufacturers, manufacturerIDs,
		)
	}

	var discounts []*discount.Discount
	if err := db.Where(cond).Order("discounts.id ASC").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

// Save creates or updates a discount
func (r *GormDiscountRepository) Save(ctx context.Context, d *discount.Discount) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// GormDiscountUsageRepository implements discount.UsageRepository using GORM
type GormDiscountUsageRepository struct {
	db *gorm.DB
}

// NewGormDiscountUsageRepository creates a new GormDiscountUsageRepository
func NewGormDiscountUsageRepository(db *gorm.DB) *GormDiscountUsageRepository {
	return &GormDiscountUsageRepository{db: db}
}

// CountUsage counts redemptions of a discount, optionally by one customer
func (r *GormDiscountUsageRepository) CountUsage(ctx context.Context, discountID int, customerID *int) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&discount.UsageHistory{}).Where("discount_id = ?", discountID)
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Record stores a redemption
func (r *GormDiscountUsageRepository) Record(ctx context.Context, usage *discount.UsageHistory) error {
	return r.db.WithContext(ctx).Create(usage).Error
}
