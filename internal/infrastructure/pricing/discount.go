package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/discount"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// DiscountCalculator subtracts the preferred discount from the final price
type DiscountCalculator struct {
	pricing.BaseCalculator
}

// NewDiscountCalculator creates a new discount calculator
func NewDiscountCalculator() *DiscountCalculator {
	return &DiscountCalculator{
		BaseCalculator: pricing.NewBaseCalculator(
			"discount",
			pricing.OrderDiscount,
			"Preferred discount among the validated applicable discounts",
		),
	}
}

// Calculate implements pricing.Calculator
func (c *DiscountCalculator) Calculate(ctx context.Context, cc *pricing.CalculatorContext, next pricing.NextFunc) error {
	if cc.Options.IgnoreDiscounts || len(cc.Discounts) == 0 {
		return next(ctx, cc)
	}

	amount, err := valueobject.NewMoney(cc.FinalPrice, cc.Options.PrimaryCurrency)
	if err != nil {
		return fmt.Errorf("discount calculation: %w", err)
	}

	preferred, reduction := discount.PreferredDiscount(cc.Discounts, amount)
	if preferred != nil {
		value := decimal.Min(reduction.Amount(), cc.FinalPrice)
		cc.FinalPrice = cc.FinalPrice.Sub(value)
		cc.DiscountAmount = cc.DiscountAmount.Add(value)
		cc.AddAppliedDiscount(preferred)
	}

	return next(ctx, cc)
}
