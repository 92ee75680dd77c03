package pricing

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/pricing"
)

// AttributePriceCalculator applies the price of the matching attribute
// combination and adds the price adjustments of the selected attribute values
type AttributePriceCalculator struct {
	pricing.BaseCalculator
}

// NewAttributePriceCalculator creates a new attribute price calculator
func NewAttributePriceCalculator() *AttributePriceCalculator {
	return &AttributePriceCalculator{
		BaseCalculator: pricing.NewBaseCalculator(
			"attributes",
			pricing.OrderAttributes,
			"Price adjustments of selected variant attribute values",
		),
	}
}

// Calculate implements pricing.Calculator.
// Without an explicit selection the preselected values are used when
// DeterminePreselectedPrice is set; the result is then also stored as
// PreselectedPrice. An active combination with its own price replaces the
// price computed so far before the adjustments are added.
func (c *AttributePriceCalculator) Calculate(ctx context.Context, cc *pricing.CalculatorContext, next pricing.NextFunc) error {
	if cc.Options.IgnoreAttributes || cc.Product == nil {
		return next(ctx, cc)
	}

	values, preselected := selectedValues(cc)
	if len(values) > 0 {
		ids := make([]int, len(values))
		for i, v := range values {
			ids[i] = v.ID
		}
		if combination := cc.Product.FindCombination(ids); combination != nil && combination.Price != nil {
			cc.FinalPrice = *combination.Price
		}

		total := decimal.Zero
		prices := make([]pricing.CalculatedAttributePrice, 0, len(values))
		for _, v := range values {
			total = total.Add(v.PriceAdjustment)
			prices = append(prices, pricing.CalculatedAttributePrice{
				AttributeValueID: v.ID,
				Name:             v.Name,
				PriceAdjustment:  v.PriceAdjustment,
			})
		}
		cc.FinalPrice = cc.FinalPrice.Add(total)
		cc.AttributePrices = prices
	}

	if preselected {
		price := cc.FinalPrice
		cc.PreselectedPrice = &price
	}

	return next(ctx, cc)
}

func selectedValues(cc *pricing.CalculatorContext) ([]catalog.AttributeValue, bool) {
	if len(cc.SelectedAttributeValueIDs) > 0 {
		var values []catalog.AttributeValue
		for _, v := range cc.Product.AttributeValues {
			if slices.Contains(cc.SelectedAttributeValueIDs, v.ID) {
				values = append(values, v)
			}
		}
		return values, false
	}
	if cc.Options.DeterminePreselectedPrice {
		return cc.Product.PreSelectedValues(), true
	}
	return nil, false
}
