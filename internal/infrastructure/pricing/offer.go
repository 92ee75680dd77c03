package pricing

import (
	"context"

	"github.com/storefront/backend/internal/domain/pricing"
)

// OfferPriceCalculator applies an active special price when it undercuts
// the current final price
type OfferPriceCalculator struct {
	pricing.BaseCalculator
}

// NewOfferPriceCalculator creates a new offer price calculator
func NewOfferPriceCalculator() *OfferPriceCalculator {
	return &OfferPriceCalculator{
		BaseCalculator: pricing.NewBaseCalculator(
			"offer",
			pricing.OrderOffer,
			"Special price within its validity window",
		),
	}
}

// Calculate implements pricing.Calculator
func (c *OfferPriceCalculator) Calculate(ctx context.Context, cc *pricing.CalculatorContext, next pricing.NextFunc) error {
	if !cc.Options.IgnoreOfferPrice && cc.Product != nil {
		if special, ok := cc.Product.ActiveSpecialPrice(cc.Options.Now); ok && special.LessThan(cc.FinalPrice) {
			cc.OfferPrice = &special
			cc.FinalPrice = special
		}
	}
	return next(ctx, cc)
}
