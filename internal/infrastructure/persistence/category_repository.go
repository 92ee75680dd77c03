package persistence

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id int) (*catalog.Category, error) {
	var category catalog.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Save creates or updates a category. A new category gets its tree path
// once the ID is assigned, within the same transaction.
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	if !category.IsTransient() {
		return r.db.WithContext(ctx).Save(category).Error
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parentPath := category.TreePath
		if err := tx.Create(category).Error; err != nil {
			return err
		}
		category.UpdateTreePath(parentPath)
		return tx.Model(category).Update("tree_path", category.TreePath).Error
	})
}
