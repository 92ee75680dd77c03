package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// GormCurrencyRepository implements currency.Repository using GORM
type GormCurrencyRepository struct {
	db *gorm.DB
}

// NewGormCurrencyRepository creates a new GormCurrencyRepository
func NewGormCurrencyRepository(db *gorm.DB) *GormCurrencyRepository {
	return &GormCurrencyRepository{db: db}
}

// FindByCode finds a published currency by its ISO code
func (r *GormCurrencyRepository) FindByCode(ctx context.Context, code string) (*valueobject.Currency, error) {
	var c valueobject.Currency
	err := r.db.WithContext(ctx).
		Where("currency_code = ? AND published = ?", strings.ToUpper(strings.TrimSpace(code)), true).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrUnknownCurrency
		}
		return nil, err
	}
	return &c, nil
}

// FindByID finds a currency by its ID
func (r *GormCurrencyRepository) FindByID(ctx context.Context, id int) (*valueobject.Currency, error) {
	var c valueobject.Currency
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListPublished returns published currencies ordered for display
func (r *GormCurrencyRepository) ListPublished(ctx context.Context) ([]valueobject.Currency, error) {
	var currencies []valueobject.Currency
	err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order("display_order ASC, id ASC").
		Find(&currencies).Error
	if err != nil {
		return nil, err
	}
	return currencies, nil
}

// Save creates or updates a currency
func (r *GormCurrencyRepository) Save(ctx context.Context, c *valueobject.Currency) error {
	return r.db.WithContext(ctx).Save(c).Error
}
