package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/storefront/backend/internal/domain/discount"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discountColumns = []string{"id", "name", "discount_type_id", "use_percentage", "discount_percentage", "discount_amount"}

func TestGormDiscountRepository_FindByID(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormDiscountRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "discounts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows(discountColumns))

	_, err := repo.FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormDiscountRepository_FindAppliedToProduct(t *testing.T) {
	t.Run("product mapping only", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormDiscountRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "discounts" WHERE \(?discounts\.discount_type_id = \$1 AND discounts\.id IN \(SELECT discount_id FROM discount_applied_to_products WHERE product_id = \$2\)\)? ORDER BY discounts\.id ASC`).
			WithArgs(discount.AssignedToSkus, 42).
			WillReturnRows(sqlmock.NewRows(discountColumns).AddRow(1, "Sku sale", 2, true, "10", "0"))

		discounts, err := repo.FindAppliedToProduct(context.Background(), 42, nil, nil)

		require.NoError(t, err)
		require.Len(t, discounts, 1)
		assert.Equal(t, "Sku sale", discounts[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("includes category and manufacturer mappings", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormDiscountRepository(gormDB)

		mock.ExpectQuery(`discount_applied_to_products.* OR .*discount_applied_to_categories WHERE category_id IN \(\$4,\$5\).* OR .*discount_applied_to_manufacturers WHERE manufacturer_id IN \(\$7\)`).
			WithArgs(discount.AssignedToSkus, 42, discount.AssignedToCategories, 3, 4, discount.AssignedToManufacturers, 9).
			WillReturnRows(sqlmock.NewRows(discountColumns).
				AddRow(1, "Sku sale", 2, true, "10", "0").
				AddRow(2, "Shoes week", 5, false, "0", "5"))

		discounts, err := repo.FindAppliedToProduct(context.Background(), 42, []int{3, 4}, []int{9})

		require.NoError(t, err)
		assert.Len(t, discounts, 2)
		assert.Equal(t, discount.AssignedToCategories, discounts[1].DiscountType)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDiscountUsageRepository_CountUsage(t *testing.T) {
	t.Run("all customers", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormDiscountUsageRepository(gormDB)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "discount_usage_history" WHERE discount_id = \$1$`).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		n, err := repo.CountUsage(context.Background(), 7, nil)

		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("one customer", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormDiscountUsageRepository(gormDB)

		customerID := 15
		mock.ExpectQuery(`SELECT count\(\*\) FROM "discount_usage_history" WHERE discount_id = \$1 AND customer_id = \$2`).
			WithArgs(7, customerID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		n, err := repo.CountUsage(context.Background(), 7, &customerID)

		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDiscountUsageRepository_Record(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormDiscountUsageRepository(gormDB)

	customerID := 3
	usage := discount.NewUsageHistory(7, &customerID, nil, time.Now())

	mock.ExpectQuery(`INSERT INTO "discount_usage_history"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))

	require.NoError(t, repo.Record(context.Background(), usage))
	assert.Equal(t, 100, usage.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
