package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid inputs", func(t *testing.T) {
		p, err := NewProduct("  Espresso Machine ", "ESP-1", decimal.NewFromInt(499))
		require.NoError(t, err)
		assert.Equal(t, "Espresso Machine", p.Name)
		assert.Equal(t, "ESP-1", p.Sku)
		assert.Equal(t, ProductTypeSimple, p.ProductType)
		assert.True(t, p.Published)
		assert.True(t, p.IsShippingEnabled)
		assert.False(t, p.CreatedOnUTC.IsZero())
		assert.True(t, p.IsTransient())
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewProduct(" ", "SKU", decimal.NewFromInt(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with negative price", func(t *testing.T) {
		_, err := NewProduct("Mug", "MUG", decimal.NewFromInt(-1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be negative")
	})
}

func TestProduct_ActiveSpecialPrice(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	p, err := NewProduct("Mug", "MUG", decimal.NewFromInt(10))
	require.NoError(t, err)

	t.Run("no special price", func(t *testing.T) {
		_, ok := p.ActiveSpecialPrice(now)
		assert.False(t, ok)
	})

	t.Run("open window", func(t *testing.T) {
		require.NoError(t, p.SetSpecialPrice(decimal.NewFromInt(8), nil, nil))
		price, ok := p.ActiveSpecialPrice(now)
		assert.True(t, ok)
		assert.True(t, price.Equal(decimal.NewFromInt(8)))
	})

	t.Run("inside window", func(t *testing.T) {
		require.NoError(t, p.SetSpecialPrice(decimal.NewFromInt(8), &before, &after))
		_, ok := p.ActiveSpecialPrice(now)
		assert.True(t, ok)
	})

	t.Run("not started", func(t *testing.T) {
		require.NoError(t, p.SetSpecialPrice(decimal.NewFromInt(8), &after, nil))
		_, ok := p.ActiveSpecialPrice(now)
		assert.False(t, ok)
	})

	t.Run("expired", func(t *testing.T) {
		require.NoError(t, p.SetSpecialPrice(decimal.NewFromInt(8), nil, &before))
		_, ok := p.ActiveSpecialPrice(now)
		assert.False(t, ok)
	})

	t.Run("invalid window", func(t *testing.T) {
		err := p.SetSpecialPrice(decimal.NewFromInt(8), &after, &before)
		require.Error(t, err)
	})

	t.Run("clear", func(t *testing.T) {
		p.ClearSpecialPrice()
		assert.Nil(t, p.SpecialPrice)
	})
}

func TestProduct_IsAvailable(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    bool
	}{
		{"inventory not managed", Product{ManageInventoryMethod: DontManageStock}, true},
		{"managed with stock", Product{ManageInventoryMethod: ManageStock, StockQuantity: 3}, true},
		{"managed without stock", Product{ManageInventoryMethod: ManageStock}, false},
		{"managed with backorders", Product{ManageInventoryMethod: ManageStock, BackorderMode: AllowQtyBelowZero}, true},
		{"by attributes in stock", Product{
			ManageInventoryMethod: ManageStockByAttributes,
			AttributeCombinations: []AttributeCombination{{StockQuantity: 0}, {StockQuantity: 2}},
		}, true},
		{"by attributes out of stock orders", Product{
			ManageInventoryMethod: ManageStockByAttributes,
			AttributeCombinations: []AttributeCombination{{AllowOutOfStockOrders: true}},
		}, true},
		{"by attributes none", Product{
			ManageInventoryMethod: ManageStockByAttributes,
			AttributeCombinations: []AttributeCombination{{StockQuantity: 0}},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.IsAvailable())
		})
	}
}

func TestProduct_Rating(t *testing.T) {
	p := &Product{}
	assert.Zero(t, p.AverageRating())

	require.NoError(t, p.AddReview(5))
	require.NoError(t, p.AddReview(4))
	assert.InDelta(t, 4.5, p.AverageRating(), 0.0001)

	assert.Error(t, p.AddReview(6))
}

func TestProduct_ApplicableTierPrices(t *testing.T) {
	p := &Product{TierPrices: []TierPrice{
		{Quantity: 10, Price: decimal.NewFromInt(8)},
		{Quantity: 5, Price: decimal.NewFromInt(9)},
		{Quantity: 5, Price: decimal.RequireFromString("8.5"), CustomerRoleID: intPtr(3)},
		{Quantity: 20, Price: decimal.NewFromInt(6), StoreID: 2},
		{Quantity: 5, Price: decimal.NewFromInt(7), CustomerRoleID: intPtr(99)},
	}}

	tiers := p.ApplicableTierPrices(1, []int{3})
	require.Len(t, tiers, 2)
	assert.Equal(t, 5, tiers[0].Quantity)
	assert.Equal(t, "8.5", tiers[0].Price.String())
	assert.Equal(t, 10, tiers[1].Quantity)

	assert.Len(t, p.ApplicableTierPrices(2, nil), 3)
}

func TestTierPrice_Apply(t *testing.T) {
	base := decimal.NewFromInt(200)

	assert.Equal(t, "150", TierPrice{Price: decimal.NewFromInt(150)}.Apply(base).String())
	assert.Equal(t, "180", TierPrice{Price: decimal.NewFromInt(10), CalculationMethod: TierPricePercental}.Apply(base).String())
	assert.Equal(t, "190", TierPrice{Price: decimal.NewFromInt(10), CalculationMethod: TierPriceAdjustment}.Apply(base).String())
}

func TestProduct_FindCombination(t *testing.T) {
	price := decimal.NewFromInt(12)
	p := &Product{AttributeCombinations: []AttributeCombination{
		{ValueIDs: "3,1", IsActive: true, Price: &price},
		{ValueIDs: "2", IsActive: false},
	}}

	c := p.FindCombination([]int{1, 3})
	require.NotNil(t, c)
	assert.Equal(t, "12", c.Price.String())

	assert.Nil(t, p.FindCombination([]int{2}))
	assert.Nil(t, p.FindCombination(nil))
}

func TestCategory_TreePath(t *testing.T) {
	root, err := NewCategory("Kitchen", nil)
	require.NoError(t, err)
	root.ID = 1
	root.UpdateTreePath("")
	assert.Equal(t, "/1/", root.TreePath)

	child, err := NewCategory("Coffee", root)
	require.NoError(t, err)
	child.ID = 7
	child.UpdateTreePath(root.TreePath)
	assert.Equal(t, "/1/7/", child.TreePath)
	assert.Equal(t, 1, child.ParentID)
	assert.Equal(t, []int{1, 7}, child.AncestorIDs())
	assert.Equal(t, 2, child.Depth())

	_, err = NewCategory("", nil)
	assert.Error(t, err)
}
