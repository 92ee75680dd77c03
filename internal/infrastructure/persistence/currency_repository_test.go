package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var currencyColumns = []string{"id", "currency_code", "name", "symbol", "rate", "round_num_decimals", "published", "display_order"}

func TestGormCurrencyRepository_FindByCode(t *testing.T) {
	t.Run("normalizes the code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCurrencyRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "currencies" WHERE currency_code = \$1 AND published = \$2 ORDER BY .* LIMIT .*`).
			WithArgs("EUR", true, 1).
			WillReturnRows(sqlmock.NewRows(currencyColumns).AddRow(2, "EUR", "Euro", "€", "0.92", 2, true, 1))

		c, err := repo.FindByCode(context.Background(), " eur ")

		require.NoError(t, err)
		assert.Equal(t, "EUR", c.Code)
		assert.True(t, c.Rate.Equal(decimal.RequireFromString("0.92")))
		assert.Equal(t, int32(2), c.DecimalDigits())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCurrencyRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "currencies"`).
			WillReturnRows(sqlmock.NewRows(currencyColumns))

		_, err := repo.FindByCode(context.Background(), "XXX")
		assert.ErrorIs(t, err, shared.ErrUnknownCurrency)
	})
}

func TestGormCurrencyRepository_FindByID(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormCurrencyRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "currencies" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(4, 1).
		WillReturnRows(sqlmock.NewRows(currencyColumns))

	_, err := repo.FindByID(context.Background(), 4)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCurrencyRepository_ListPublished(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormCurrencyRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "currencies" WHERE published = \$1 ORDER BY display_order ASC, id ASC`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(currencyColumns).
			AddRow(1, "USD", "US Dollar", "$", "1", 2, true, 0).
			AddRow(3, "JPY", "Yen", "¥", "0.0067", 0, true, 2))

	currencies, err := repo.ListPublished(context.Background())

	require.NoError(t, err)
	require.Len(t, currencies, 2)
	assert.Equal(t, "USD", currencies[0].Code)
	assert.Equal(t, int32(0), currencies[1].DecimalDigits())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCurrencyRepository_Save(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormCurrencyRepository(gormDB)

	c, err := valueobject.NewCurrency("CHF", "Swiss Franc", "CHF", decimal.RequireFromString("1.1"))
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO "currencies"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	require.NoError(t, repo.Save(context.Background(), c))
	assert.Equal(t, 9, c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
