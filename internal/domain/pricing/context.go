package pricing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/discount"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// PriceCalculationOptions control which calculators take effect and how the
// result is presented
type PriceCalculationOptions struct {
	// PrimaryCurrency is the currency product prices are stored in
	PrimaryCurrency *valueobject.Currency
	// TargetCurrency is the currency the result is converted to
	TargetCurrency *valueobject.Currency

	IgnoreDiscounts           bool
	IgnoreTierPrices          bool
	IgnoreOfferPrice          bool
	IgnoreAttributes          bool
	DetermineLowestPrice      bool
	DeterminePreselectedPrice bool
	// RoundPrices forces rounding to the target currency precision
	RoundPrices bool
	// TaxSuffixFormat renders a tax hint when formatting, e.g. "%s incl. tax"
	TaxSuffixFormat string
	// Now is the reference time for offer windows
	Now time.Time
}

// Customer identifies who the price is calculated for
type Customer struct {
	ID      *int
	RoleIDs []int
}

// PriceCalculationContext is the input of a price calculation
type PriceCalculationContext struct {
	Product                   *catalog.Product
	Quantity                  int
	Customer                  Customer
	StoreID                   int
	SelectedAttributeValueIDs []int
	CouponCode                string
	// Discounts are the already validated discounts applicable to the product
	Discounts []*discount.Discount
	Options   PriceCalculationOptions
}

// NewPriceCalculationContext creates a context with quantity 1 and the
// current UTC time
func NewPriceCalculationContext(product *catalog.Product, options PriceCalculationOptions) *PriceCalculationContext {
	if options.Now.IsZero() {
		options.Now = time.Now().UTC()
	}
	if options.TargetCurrency == nil {
		options.TargetCurrency = options.PrimaryCurrency
	}
	return &PriceCalculationContext{
		Product:  product,
		Quantity: 1,
		Options:  options,
	}
}

// CalculatedAttributePrice is the price adjustment of one selected attribute value
type CalculatedAttributePrice struct {
	AttributeValueID int
	Name             string
	PriceAdjustment  decimal.Decimal
}

// CalculatorContext carries the intermediate state through the calculator
// pipeline. All amounts are unit prices in the primary currency.
type CalculatorContext struct {
	*PriceCalculationContext

	regularPrice decimal.Decimal

	FinalPrice       decimal.Decimal
	HasPriceRange    bool
	OfferPrice       *decimal.Decimal
	PreselectedPrice *decimal.Decimal
	LowestPrice      *decimal.Decimal
	MinTierPrice     *decimal.Decimal
	DiscountAmount   decimal.Decimal
	AppliedDiscounts []*discount.Discount
	AttributePrices  []CalculatedAttributePrice
}

// NewCalculatorContext starts a calculation with FinalPrice = regularPrice
func NewCalculatorContext(ctx *PriceCalculationContext, regularPrice decimal.Decimal) *CalculatorContext {
	return &CalculatorContext{
		PriceCalculationContext: ctx,
		regularPrice:            regularPrice,
		FinalPrice:              regularPrice,
	}
}

// RegularPrice is the price the calculation started from
func (c *CalculatorContext) RegularPrice() decimal.Decimal {
	return c.regularPrice
}

// AddAppliedDiscount records a discount once per discount ID
func (c *CalculatorContext) AddAppliedDiscount(d *discount.Discount) {
	if d == nil || discount.ContainsDiscount(c.AppliedDiscounts, d) {
		return
	}
	c.AppliedDiscounts = append(c.AppliedDiscounts, d)
}

// CopyTo copies the calculation state into target. Collections in target
// are replaced, not merged.
func (c *CalculatorContext) CopyTo(target *CalculatorContext) {
	if target == nil {
		return
	}
	if target.PriceCalculationContext == nil {
		target.PriceCalculationContext = &PriceCalculationContext{}
	}
	target.Product = c.Product
	target.regularPrice = c.regularPrice
	target.FinalPrice = c.FinalPrice
	target.HasPriceRange = c.HasPriceRange
	target.OfferPrice = copyDecimal(c.OfferPrice)
	target.PreselectedPrice = copyDecimal(c.PreselectedPrice)
	target.LowestPrice = copyDecimal(c.LowestPrice)
	target.MinTierPrice = copyDecimal(c.MinTierPrice)
	target.DiscountAmount = c.DiscountAmount
	target.AppliedDiscounts = append([]*discount.Discount(nil), c.AppliedDiscounts...)
	target.AttributePrices = append([]CalculatedAttributePrice(nil), c.AttributePrices...)
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
