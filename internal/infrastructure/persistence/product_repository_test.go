package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/storefront/backend/internal/domain/search"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockGormDB(t)
	return NewGormProductRepository(gormDB, nil), mock, mockDB
}

func TestGormProductRepository_FindByID(t *testing.T) {
	t.Run("finds existing product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "name", "sku", "price", "published"}).
			AddRow(7, "Jacket", "JK-1", "129.90", true)
		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(7, 1).
			WillReturnRows(rows)

		product, err := repo.FindByID(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, 7, product.ID)
		assert.Equal(t, "Jacket", product.Name)
		assert.Equal(t, "129.9", product.Price.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing product to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(99, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		product, err := repo.FindByID(context.Background(), 99)

		assert.Nil(t, product)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_FindByIDWithPricing(t *testing.T) {
	repo, mock, mockDB := newMockProductRepository(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).AddRow(3, "Shirt", "20"))
	// preloads run in association name order
	mock.ExpectQuery(`SELECT \* FROM "product_variant_attribute_combinations" WHERE "product_variant_attribute_combinations"\."product_id" = \$1`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id"}))
	mock.ExpectQuery(`SELECT \* FROM "product_variant_attribute_values"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "price_adjustment"}).AddRow(1, 3, "2.5"))
	mock.ExpectQuery(`SELECT \* FROM "product_category_mappings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "category_id"}).AddRow(1, 3, 11))
	mock.ExpectQuery(`SELECT \* FROM "product_manufacturer_mappings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "manufacturer_id"}))
	mock.ExpectQuery(`SELECT \* FROM "tier_prices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "quantity", "price"}).AddRow(1, 3, 5, "18"))

	product, err := repo.FindByIDWithPricing(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, []int{11}, product.CategoryIDs())
	require.Len(t, product.TierPrices, 1)
	assert.Equal(t, 5, product.TierPrices[0].Quantity)
	require.Len(t, product.AttributeValues, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormProductRepository_FindByIDs(t *testing.T) {
	t.Run("empty input skips the query", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		products, err := repo.FindByIDs(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, products)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loads products by id", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id IN \(\$1,\$2\)`).
			WithArgs(1, 2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "A").AddRow(2, "B"))

		products, err := repo.FindByIDs(context.Background(), []int{1, 2})

		require.NoError(t, err)
		assert.Len(t, products, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_Delete(t *testing.T) {
	t.Run("deletes existing product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`DELETE FROM "products" WHERE id = \$1`).
			WithArgs(5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), 5))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when nothing was deleted", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`DELETE FROM "products" WHERE id = \$1`).
			WithArgs(5).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), 5), shared.ErrNotFound)
	})
}

func TestGormProductRepository_Search(t *testing.T) {
	t.Run("counts then loads the requested page", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		q := search.NewCatalogSearchQuery(nil, "", search.ExactMatch).
			PublishedOnly(true).
			Slice(10, 5)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE products\.published = \$1$`).
			WithArgs(true).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
		mock.ExpectQuery(`SELECT \* FROM "products" WHERE products\.published = \$1 ORDER BY "products"\."id" LIMIT \$2 OFFSET \$3`).
			WithArgs(true, 5, 10).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(11, "K").AddRow(12, "L"))

		result, err := repo.Search(context.Background(), q)

		require.NoError(t, err)
		assert.Equal(t, int64(12), result.TotalCount)
		assert.Len(t, result.Hits, 2)
		assert.Equal(t, 5, result.PageSize())
		assert.Equal(t, 3, result.TotalPages())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unpaged query has no limit", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(`SELECT \* FROM "products" ORDER BY "products"\."id"$`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

		result, err := repo.Search(context.Background(), search.NewCatalogSearchQuery(nil, "", search.ExactMatch))

		require.NoError(t, err)
		assert.Len(t, result.Hits, 2)
		assert.Equal(t, 1, result.TotalPages())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skip past the end only counts", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		q := search.NewCatalogSearchQuery(nil, "", search.ExactMatch).Slice(20, 10)
		result, err := repo.Search(context.Background(), q)

		require.NoError(t, err)
		assert.Empty(t, result.Hits)
		assert.Equal(t, int64(3), result.TotalCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count failure is returned", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Search(context.Background(), search.NewCatalogSearchQuery(nil, "", search.ExactMatch))
		assert.EqualError(t, err, "connection reset")
	})

	t.Run("nil query is invalid", func(t *testing.T) {
		repo, _, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		_, err := repo.Search(context.Background(), nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
