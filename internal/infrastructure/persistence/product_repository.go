package persistence

import (
	"context"
	"errors"
	"math"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/search"
	"github.com/storefront/backend/internal/domain/shared"
	catalogsearch "github.com/storefront/backend/internal/infrastructure/search"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository and
// search.ProductSearcher using GORM
type GormProductRepository struct {
	db      *gorm.DB
	visitor *catalogsearch.CatalogSearchQueryVisitor
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB, visitor *catalogsearch.CatalogSearchQueryVisitor) *GormProductRepository {
	if visitor == nil {
		visitor = catalogsearch.NewCatalogSearchQueryVisitor(catalogsearch.VisitorConfig{})
	}
	return &GormProductRepository{db: db, visitor: visitor}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id int) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDWithPricing finds a product with the associations read by the
// price calculators
func (r *GormProductRepository) FindByIDWithPricing(ctx context.Context, id int) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).
		Preload("TierPrices").
		Preload("AttributeValues").
		Preload("AttributeCombinations").
		Preload("ProductCategories").
		Preload("ProductManufacturers").
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDs finds multiple products by their IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []int) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var products []catalog.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete deletes a product
func (r *GormProductRepository) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Search counts all products matching q and loads the requested page.
// A Take of zero only counts.
func (r *GormProductRepository) Search(ctx context.Context, q *search.CatalogSearchQuery) (*search.Result, error) {
	if q == nil {
		return nil, shared.ErrInvalidInput
	}
	query, _ := r.visitor.Visit(ctx, q, r.db.Model(&catalog.Product{}))

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	result := &search.Result{Query: q, TotalCount: total, Hits: []catalog.Product{}}
	if total == 0 || q.Take == 0 || int64(q.Skip) >= total {
		return result, nil
	}

	page := query.Session(&gorm.Session{})
	if q.Skip > 0 {
		page = page.Offset(q.Skip)
	}
	if q.Take > 0 && q.Take != math.MaxInt32 {
		page = page.Limit(q.Take)
	}
	if err := page.Find(&result.Hits).Error; err != nil {
		return nil, err
	}
	return result, nil
}
