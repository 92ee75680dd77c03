package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/pricing"
)

// TierPriceCalculator applies quantity based tier prices valid for the
// store and the customer's roles
type TierPriceCalculator struct {
	pricing.BaseCalculator
}

// NewTierPriceCalculator creates a new tier price calculator
func NewTierPriceCalculator() *TierPriceCalculator {
	return &TierPriceCalculator{
		BaseCalculator: pricing.NewBaseCalculator(
			"tier",
			pricing.OrderTier,
			"Tiered pricing based on quantity thresholds",
		),
	}
}

// Calculate implements pricing.Calculator.
// It picks the highest tier whose quantity is <= the requested quantity.
func (c *TierPriceCalculator) Calculate(ctx context.Context, cc *pricing.CalculatorContext, next pricing.NextFunc) error {
	if cc.Options.IgnoreTierPrices || cc.Product == nil || !cc.Product.HasTierPrices {
		return next(ctx, cc)
	}

	tiers := cc.Product.ApplicableTierPrices(cc.StoreID, cc.Customer.RoleIDs)
	if len(tiers) == 0 {
		return next(ctx, cc)
	}

	base := cc.RegularPrice()
	if price, ok := tierPriceForQuantity(tiers, base, cc.Quantity); ok && price.LessThan(cc.FinalPrice) {
		cc.FinalPrice = price
	}

	minTier := minTierPrice(tiers, base)
	cc.MinTierPrice = &minTier
	cc.HasPriceRange = true

	return next(ctx, cc)
}

func tierPriceForQuantity(tiers []catalog.TierPrice, base decimal.Decimal, quantity int) (decimal.Decimal, bool) {
	for i := len(tiers) - 1; i >= 0; i-- {
		if quantity >= tiers[i].Quantity {
			return clampZero(tiers[i].Apply(base)), true
		}
	}
	return decimal.Zero, false
}

func minTierPrice(tiers []catalog.TierPrice, base decimal.Decimal) decimal.Decimal {
	lowest := clampZero(tiers[0].Apply(base))
	for _, tp := range tiers[1:] {
		lowest = decimal.Min(lowest, clampZero(tp.Apply(base)))
	}
	return lowest
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
