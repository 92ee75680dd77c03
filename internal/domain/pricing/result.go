package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/discount"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// PriceSaving describes how much the customer saves compared to the regular price
type PriceSaving struct {
	HasSaving     bool
	SavingAmount  valueobject.Money
	SavingPercent float64
}

// CalculatedPrice is the outcome of a price calculation in the target currency
type CalculatedPrice struct {
	ProductID        int
	Quantity         int
	RegularPrice     valueobject.Money
	FinalPrice       valueobject.Money
	OfferPrice       *valueobject.Money
	PreselectedPrice *valueobject.Money
	LowestPrice      *valueobject.Money
	MinTierPrice     *valueobject.Money
	DiscountAmount   valueobject.Money
	HasPriceRange    bool
	AppliedDiscounts []*discount.Discount
	AttributePrices  []CalculatedAttributePrice
	Saving           PriceSaving
}

// Subtotal is FinalPrice multiplied by the quantity
func (p CalculatedPrice) Subtotal() valueobject.Money {
	return p.FinalPrice.MultiplyByInt(int64(p.Quantity))
}

// NewCalculatedPrice converts the pipeline state into a result. Amounts are
// exchanged from the primary into the target currency and rounded when
// RoundPrices is set. A negative final price is clamped to zero.
func NewCalculatedPrice(cc *CalculatorContext) (*CalculatedPrice, error) {
	opts := cc.Options
	if opts.PrimaryCurrency == nil {
		return nil, fmt.Errorf("price calculation: primary currency is required")
	}
	target := opts.TargetCurrency
	if target == nil {
		target = opts.PrimaryCurrency
	}

	convert := func(amount decimal.Decimal) (valueobject.Money, error) {
		m, err := valueobject.NewMoney(amount, opts.PrimaryCurrency)
		if err != nil {
			return valueobject.Money{}, err
		}
		m, err = m.Exchange(target)
		if err != nil {
			return valueobject.Money{}, err
		}
		m = m.Round(opts.RoundPrices)
		if opts.TaxSuffixFormat != "" {
			m = m.WithTax(opts.TaxSuffixFormat)
		}
		return m, nil
	}
	convertPtr := func(amount *decimal.Decimal) (*valueobject.Money, error) {
		if amount == nil {
			return nil, nil
		}
		m, err := convert(*amount)
		if err != nil {
			return nil, err
		}
		return &m, nil
	}

	finalAmount := cc.FinalPrice
	if finalAmount.IsNegative() {
		finalAmount = decimal.Zero
	}

	result := &CalculatedPrice{
		Quantity:         cc.Quantity,
		HasPriceRange:    cc.HasPriceRange,
		AppliedDiscounts: append([]*discount.Discount(nil), cc.AppliedDiscounts...),
		AttributePrices:  append([]CalculatedAttributePrice(nil), cc.AttributePrices...),
	}
	if cc.Product != nil {
		result.ProductID = cc.Product.ID
	}

	var err error
	if result.RegularPrice, err = convert(cc.RegularPrice()); err != nil {
		return nil, err
	}
	if result.FinalPrice, err = convert(finalAmount); err != nil {
		return nil, err
	}
	if result.DiscountAmount, err = convert(cc.DiscountAmount); err != nil {
		return nil, err
	}
	if result.OfferPrice, err = convertPtr(cc.OfferPrice); err != nil {
		return nil, err
	}
	if result.PreselectedPrice, err = convertPtr(cc.PreselectedPrice); err != nil {
		return nil, err
	}
	if result.LowestPrice, err = convertPtr(cc.LowestPrice); err != nil {
		return nil, err
	}
	if result.MinTierPrice, err = convertPtr(cc.MinTierPrice); err != nil {
		return nil, err
	}

	result.Saving = calculateSaving(result.RegularPrice, result.FinalPrice)
	return result, nil
}

func calculateSaving(regular, final valueobject.Money) PriceSaving {
	saving := PriceSaving{SavingAmount: valueobject.Zero(final.Currency())}
	if !regular.IsPositive() || final.Amount().GreaterThanOrEqual(regular.Amount()) {
		return saving
	}
	diff := regular.Amount().Sub(final.Amount())
	saving.HasSaving = true
	saving.SavingAmount = final.Change(diff, nil)
	saving.SavingPercent = diff.Div(regular.Amount()).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	return saving
}
