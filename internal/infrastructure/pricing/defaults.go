package pricing

import (
	"github.com/storefront/backend/internal/domain/pricing"
)

// NewRegistryWithDefaults creates a registry with the built-in calculators
// registered: offer, tier, attributes, discount and lowest price.
func NewRegistryWithDefaults() (*CalculatorRegistry, error) {
	r := NewCalculatorRegistry()

	defaults := []pricing.Calculator{
		NewOfferPriceCalculator(),
		NewTierPriceCalculator(),
		NewAttributePriceCalculator(),
		NewDiscountCalculator(),
		NewLowestPriceCalculator(),
	}
	for _, c := range defaults {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultPipeline returns the pipeline of the built-in calculators
func DefaultPipeline() *pricing.Pipeline {
	r, err := NewRegistryWithDefaults()
	if err != nil {
		// names are unique, registration cannot fail
		panic(err)
	}
	return r.Pipeline()
}
