package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/discount"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func newProduct(t *testing.T, price float64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Jacket", "JK-1", dec(price))
	require.NoError(t, err)
	p.ID = 42
	return p
}

func newContext(t *testing.T, p *catalog.Product, mutate func(*pricing.PriceCalculationContext)) *pricing.CalculatorContext {
	t.Helper()
	usd, err := valueobject.NewCurrency("USD", "US Dollar", "$", decimal.NewFromInt(1))
	require.NoError(t, err)
	pc := pricing.NewPriceCalculationContext(p, pricing.PriceCalculationOptions{
		PrimaryCurrency: usd,
		Now:             now,
	})
	if mutate != nil {
		mutate(pc)
	}
	return pricing.NewCalculatorContext(pc, p.Price)
}

func run(t *testing.T, c pricing.Calculator, cc *pricing.CalculatorContext) {
	t.Helper()
	called := false
	err := c.Calculate(context.Background(), cc, func(context.Context, *pricing.CalculatorContext) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called, "calculator %s must call next", c.Name())
}

func TestOfferPriceCalculator(t *testing.T) {
	calc := NewOfferPriceCalculator()
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)

	tests := []struct {
		name      string
		special   float64
		from, to  *time.Time
		ignore    bool
		wantFinal float64
		wantOffer bool
	}{
		{name: "active lower special price", special: 80, from: &start, to: &end, wantFinal: 80, wantOffer: true},
		{name: "open window", special: 80, wantFinal: 80, wantOffer: true},
		{name: "higher special price is ignored", special: 120, wantFinal: 100},
		{name: "expired window", special: 80, from: timePtr(now.Add(-2 * time.Hour)), to: &start, wantFinal: 100},
		{name: "window starting exactly now", special: 80, from: timePtr(now), to: &end, wantFinal: 100},
		{name: "ignored by options", special: 80, ignore: true, wantFinal: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProduct(t, 100)
			require.NoError(t, p.SetSpecialPrice(dec(tt.special), tt.from, tt.to))
			cc := newContext(t, p, func(pc *pricing.PriceCalculationContext) {
				pc.Options.IgnoreOfferPrice = tt.ignore
			})

			run(t, calc, cc)

			assert.True(t, cc.FinalPrice.Equal(dec(tt.wantFinal)), "final price %s", cc.FinalPrice)
			assert.Equal(t, tt.wantOffer, cc.OfferPrice != nil)
		})
	}
}

func TestTierPriceCalculator(t *testing.T) {
	calc := NewTierPriceCalculator()
	wholesale := 3

	newTiered := func(t *testing.T) *catalog.Product {
		p := newProduct(t, 100)
		p.HasTierPrices = true
		p.TierPrices = []catalog.TierPrice{
			{Quantity: 10, Price: dec(90)},
			{Quantity: 50, Price: dec(15), CalculationMethod: catalog.TierPricePercental},
			{Quantity: 100, Price: dec(30), CalculationMethod: catalog.TierPriceAdjustment},
			{Quantity: 5, Price: dec(50), CustomerRoleID: &wholesale},
			{Quantity: 2, Price: dec(60), StoreID: 9},
		}
		return p
	}

	tests := []struct {
		name      string
		quantity  int
		roles     []int
		storeID   int
		wantFinal float64
		wantMin   float64
	}{
		{name: "below first tier", quantity: 1, wantFinal: 100, wantMin: 70},
		{name: "fixed tier", quantity: 10, wantFinal: 90, wantMin: 70},
		{name: "percental tier", quantity: 60, wantFinal: 85, wantMin: 70},
		{name: "adjustment tier", quantity: 100, wantFinal: 70, wantMin: 70},
		{name: "role bound tier", quantity: 5, roles: []int{wholesale}, wantFinal: 50, wantMin: 50},
		{name: "store bound tier", quantity: 2, storeID: 9, wantFinal: 60, wantMin: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := newContext(t, newTiered(t), func(pc *pricing.PriceCalculationContext) {
				pc.Quantity = tt.quantity
				pc.Customer.RoleIDs = tt.roles
				pc.StoreID = tt.storeID
			})

			run(t, calc, cc)

			assert.True(t, cc.FinalPrice.Equal(dec(tt.wantFinal)), "final price %s", cc.FinalPrice)
			require.NotNil(t, cc.MinTierPrice)
			assert.True(t, cc.MinTierPrice.Equal(dec(tt.wantMin)), "min tier price %s", cc.MinTierPrice)
			assert.True(t, cc.HasPriceRange)
		})
	}

	t.Run("does not raise an offer price", func(t *testing.T) {
		cc := newContext(t, newTiered(t), func(pc *pricing.PriceCalculationContext) {
			pc.Quantity = 10
		})
		cc.FinalPrice = dec(75)
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.Equal(dec(75)))
	})

	t.Run("ignored without tier flag", func(t *testing.T) {
		p := newTiered(t)
		p.HasTierPrices = false
		cc := newContext(t, p, func(pc *pricing.PriceCalculationContext) { pc.Quantity = 100 })
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.Equal(dec(100)))
		assert.Nil(t, cc.MinTierPrice)
		assert.False(t, cc.HasPriceRange)
	})
}

func TestAttributePriceCalculator(t *testing.T) {
	calc := NewAttributePriceCalculator()

	newVariant := func(t *testing.T) *catalog.Product {
		p := newProduct(t, 100)
		p.AttributeValues = []catalog.AttributeValue{
			{BaseEntity: shared.BaseEntity{ID: 1}, Name: "Red", PriceAdjustment: dec(5)},
			{BaseEntity: shared.BaseEntity{ID: 2}, Name: "XL", PriceAdjustment: dec(7.5), IsPreSelected: true},
			{BaseEntity: shared.BaseEntity{ID: 3}, Name: "Gift wrap", PriceAdjustment: dec(2)},
		}
		return p
	}

	t.Run("selected values", func(t *testing.T) {
		cc := newContext(t, newVariant(t), func(pc *pricing.PriceCalculationContext) {
			pc.SelectedAttributeValueIDs = []int{1, 3}
		})
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.Equal(dec(107)))
		require.Len(t, cc.AttributePrices, 2)
		assert.Equal(t, "Red", cc.AttributePrices[0].Name)
		assert.Nil(t, cc.PreselectedPrice)
	})

	t.Run("preselected values", func(t *testing.T) {
		cc := newContext(t, newVariant(t), func(pc *pricing.PriceCalculationContext) {
			pc.Options.DeterminePreselectedPrice = true
		})
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.Equal(dec(107.5)))
		require.NotNil(t, cc.PreselectedPrice)
		assert.True(t, cc.PreselectedPrice.Equal(dec(107.5)))
	})

	t.Run("combination price replaces base", func(t *testing.T) {
		p := newVariant(t)
		p.AttributeCombinations = []catalog.AttributeCombination{
			{ValueIDs: "3,1", Price: decimalPtr(dec(90)), IsActive: true},
			{ValueIDs: "2", Price: decimalPtr(dec(60)), IsActive: false},
		}
		cc := newContext(t, p, func(pc *pricing.PriceCalculationContext) {
			pc.SelectedAttributeValueIDs = []int{1, 3}
		})
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.Equal(dec(97)), "final price %s", cc.FinalPrice)
	})

	t.Run("combination without price keeps base", func(t *testing.T) {
		p := newVariant(t)
		p.AttributeCombinations = []catalog.AttributeCombination{{ValueIDs: "1,3", IsActive: true}}
		cc := newContext(t, p, func(pc *pricing.PriceCalculationContext) {
			pc.SelectedAttributeValueIDs = []int{1, 3}
		})
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.Equal(dec(107)))
	})

	t.Run("preselected combination price", func(t *testing.T) {
		p := newVariant(t)
		p.AttributeCombinations = []catalog.AttributeCombination{{ValueIDs: "2", Price: decimalPtr(dec(80)), IsActive: true}}
		cc := newContext(t, p, func(pc *pricing.PriceCalculationContext) {
			pc.Options.DeterminePreselectedPrice = true
		})
		run(t, calc, cc)
		require.NotNil(t, cc.PreselectedPrice)
		assert.True(t, cc.PreselectedPrice.Equal(dec(87.5)))
	})

	t.Run("no selection", func(t *testing.T) {
		cc := newContext(t, newVariant(t), nil)
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.Equal(dec(100)))
		assert.Empty(t, cc.AttributePrices)
	})

	t.Run("ignored by options", func(t *testing.T) {
		cc := newContext(t, newVariant(t), func(pc *pricing.PriceCalculationContext) {
			pc.SelectedAttributeValueIDs = []int{1}
			pc.Options.IgnoreAttributes = true
		})
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.Equal(dec(100)))
	})
}

func TestDiscountCalculator(t *testing.T) {
	calc := NewDiscountCalculator()

	tenPercent, err := discount.NewPercentageDiscount("10%", discount.AssignedToSkus, dec(10))
	require.NoError(t, err)
	tenPercent.ID = 1
	fifteenOff, err := discount.NewFixedDiscount("15 off", discount.AssignedToCategories, dec(15))
	require.NoError(t, err)
	fifteenOff.ID = 2
	huge, err := discount.NewFixedDiscount("huge", discount.AssignedToManufacturers, dec(500))
	require.NoError(t, err)
	huge.ID = 3

	t.Run("applies the preferred discount", func(t *testing.T) {
		cc := newContext(t, newProduct(t, 100), func(pc *pricing.PriceCalculationContext) {
			pc.Discounts = []*discount.Discount{tenPercent, fifteenOff}
		})
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.Equal(dec(85)))
		assert.True(t, cc.DiscountAmount.Equal(dec(15)))
		require.Len(t, cc.AppliedDiscounts, 1)
		assert.Equal(t, 2, cc.AppliedDiscounts[0].ID)
	})

	t.Run("never goes below zero", func(t *testing.T) {
		cc := newContext(t, newProduct(t, 100), func(pc *pricing.PriceCalculationContext) {
			pc.Discounts = []*discount.Discount{huge}
		})
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.IsZero())
		assert.True(t, cc.DiscountAmount.Equal(dec(100)))
	})

	t.Run("ignored by options", func(t *testing.T) {
		cc := newContext(t, newProduct(t, 100), func(pc *pricing.PriceCalculationContext) {
			pc.Discounts = []*discount.Discount{tenPercent}
			pc.Options.IgnoreDiscounts = true
		})
		run(t, calc, cc)
		assert.True(t, cc.FinalPrice.Equal(dec(100)))
		assert.Empty(t, cc.AppliedDiscounts)
	})
}

func TestLowestPriceCalculator(t *testing.T) {
	calc := NewLowestPriceCalculator()

	p := newProduct(t, 100)
	p.AttributeCombinations = []catalog.AttributeCombination{
		{ValueIDs: "1", Price: decimalPtr(dec(95)), IsActive: true},
		{ValueIDs: "2", Price: decimalPtr(dec(40)), IsActive: false},
	}

	t.Run("combination price", func(t *testing.T) {
		cc := newContext(t, p, func(pc *pricing.PriceCalculationContext) {
			pc.Options.DetermineLowestPrice = true
		})
		run(t, calc, cc)
		require.NotNil(t, cc.LowestPrice)
		assert.True(t, cc.LowestPrice.Equal(dec(95)))
		assert.True(t, cc.HasPriceRange)
	})

	t.Run("min tier price wins", func(t *testing.T) {
		cc := newContext(t, p, func(pc *pricing.PriceCalculationContext) {
			pc.Options.DetermineLowestPrice = true
		})
		cc.MinTierPrice = decimalPtr(dec(70))
		run(t, calc, cc)
		assert.True(t, cc.LowestPrice.Equal(dec(70)))
	})

	t.Run("not requested", func(t *testing.T) {
		cc := newContext(t, p, nil)
		run(t, calc, cc)
		assert.Nil(t, cc.LowestPrice)
		assert.False(t, cc.HasPriceRange)
	})
}

func TestDefaultPipeline(t *testing.T) {
	p := newProduct(t, 100)
	require.NoError(t, p.SetSpecialPrice(dec(90), nil, nil))
	p.HasTierPrices = true
	p.TierPrices = []catalog.TierPrice{{Quantity: 10, Price: dec(80)}}
	p.AttributeValues = []catalog.AttributeValue{
		{BaseEntity: shared.BaseEntity{ID: 1}, Name: "Engraving", PriceAdjustment: dec(10)},
	}

	tenPercent, err := discount.NewPercentageDiscount("10%", discount.AssignedToSkus, dec(10))
	require.NoError(t, err)
	tenPercent.ID = 1

	cc := newContext(t, p, func(pc *pricing.PriceCalculationContext) {
		pc.Quantity = 10
		pc.SelectedAttributeValueIDs = []int{1}
		pc.Discounts = []*discount.Discount{tenPercent}
		pc.Options.DetermineLowestPrice = true
	})

	require.NoError(t, DefaultPipeline().Run(context.Background(), cc))

	// offer 90, tier 80, attributes +10 = 90, discount 10% = 81
	assert.True(t, cc.FinalPrice.Equal(dec(81)), "final price %s", cc.FinalPrice)
	require.NotNil(t, cc.OfferPrice)
	assert.True(t, cc.OfferPrice.Equal(dec(90)))
	assert.True(t, cc.DiscountAmount.Equal(dec(9)))
	assert.True(t, cc.LowestPrice.Equal(dec(80)))
	assert.True(t, cc.HasPriceRange)

	result, err := pricing.NewCalculatedPrice(cc)
	require.NoError(t, err)
	assert.Equal(t, "81.00", result.FinalPrice.StringFixed(2))
	assert.Equal(t, 19.0, result.Saving.SavingPercent)
}

func TestCalculatorRegistry(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	assert.Equal(t, []string{"offer", "tier", "attributes", "discount", "lowest"}, r.List())

	err = r.Register(NewTierPriceCalculator())
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	c, err := r.Get("discount")
	require.NoError(t, err)
	assert.Equal(t, pricing.OrderDiscount, c.Order())

	require.NoError(t, r.Unregister("discount"))
	_, err = r.Get("discount")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, r.Unregister("discount"), shared.ErrNotFound)
	assert.Len(t, r.Pipeline().Calculators(), 4)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
