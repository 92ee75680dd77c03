package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/pricing"
)

// LowestPriceCalculator determines the lowest possible price of a product
// across tier prices and attribute combinations
type LowestPriceCalculator struct {
	pricing.BaseCalculator
}

// NewLowestPriceCalculator creates a new lowest price calculator
func NewLowestPriceCalculator() *LowestPriceCalculator {
	return &LowestPriceCalculator{
		BaseCalculator: pricing.NewBaseCalculator(
			"lowest",
			pricing.OrderLowest,
			"Lowest price over tiers and attribute combinations",
		),
	}
}

// Calculate implements pricing.Calculator
func (c *LowestPriceCalculator) Calculate(ctx context.Context, cc *pricing.CalculatorContext, next pricing.NextFunc) error {
	if !cc.Options.DetermineLowestPrice || cc.Product == nil {
		return next(ctx, cc)
	}

	lowest := cc.FinalPrice
	if cc.MinTierPrice != nil {
		lowest = decimal.Min(lowest, *cc.MinTierPrice)
	}
	for _, combination := range cc.Product.AttributeCombinations {
		if combination.IsActive && combination.Price != nil {
			lowest = decimal.Min(lowest, *combination.Price)
		}
	}
	lowest = clampZero(lowest)

	cc.LowestPrice = &lowest
	if lowest.LessThan(cc.FinalPrice) {
		cc.HasPriceRange = true
	}

	return next(ctx, cc)
}
