package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/domain/pricing"
)

// PriceRequest asks for the price of a product for a customer
type PriceRequest struct {
	ProductID         int    `uri:"id" binding:"required,min=1"`
	Quantity          int    `form:"quantity" binding:"omitempty,min=1,max=100000"`
	CurrencyCode      string `form:"currency" binding:"omitempty,len=3"`
	CouponCode        string `form:"coupon" binding:"max=100"`
	AttributeValueIDs []int  `form:"attribute_value_id"`
	LowestPrice       bool   `form:"lowest"`
	IgnoreDiscounts   bool   `form:"ignore_discounts"`

	// Filled from the customer token, never from the query
	CustomerID      *int  `form:"-"`
	CustomerRoleIDs []int `form:"-"`
	StoreID         int   `form:"-"`
}

// AppliedDiscountResponse identifies a discount used in the calculation
type AppliedDiscountResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AttributePriceResponse is the adjustment of a selected attribute value
type AttributePriceResponse struct {
	AttributeValueID int             `json:"attribute_value_id"`
	Name             string          `json:"name"`
	PriceAdjustment  decimal.Decimal `json:"price_adjustment"`
}

// SavingResponse describes the saving against the regular price
type SavingResponse struct {
	HasSaving bool                   `json:"has_saving"`
	Amount    currency.MoneyResponse `json:"amount"`
	Percent   float64                `json:"percent"`
}

// PriceResponse is a calculated product price in the requested currency
type PriceResponse struct {
	ProductID        int                       `json:"product_id"`
	Quantity         int                       `json:"quantity"`
	Currency         string                    `json:"currency"`
	RegularPrice     currency.MoneyResponse    `json:"regular_price"`
	FinalPrice       currency.MoneyResponse    `json:"final_price"`
	OfferPrice       *currency.MoneyResponse   `json:"offer_price,omitempty"`
	LowestPrice      *currency.MoneyResponse   `json:"lowest_price,omitempty"`
	MinTierPrice     *currency.MoneyResponse   `json:"min_tier_price,omitempty"`
	DiscountAmount   currency.MoneyResponse    `json:"discount_amount"`
	Subtotal         currency.MoneyResponse    `json:"subtotal"`
	HasPriceRange    bool                      `json:"has_price_range"`
	AppliedDiscounts []AppliedDiscountResponse `json:"applied_discounts"`
	AttributePrices  []AttributePriceResponse  `json:"attribute_prices,omitempty"`
	Saving           SavingResponse            `json:"saving"`
}

// ToPriceResponse converts a calculated price
func ToPriceResponse(p *pricing.CalculatedPrice) *PriceResponse {
	resp := &PriceResponse{
		ProductID:        p.ProductID,
		Quantity:         p.Quantity,
		Currency:         p.FinalPrice.CurrencyCode(),
		RegularPrice:     currency.ToMoneyResponse(p.RegularPrice),
		FinalPrice:       currency.ToMoneyResponse(p.FinalPrice),
		DiscountAmount:   currency.ToMoneyResponse(p.DiscountAmount),
		Subtotal:         currency.ToMoneyResponse(p.Subtotal()),
		HasPriceRange:    p.HasPriceRange,
		AppliedDiscounts: make([]AppliedDiscountResponse, 0, len(p.AppliedDiscounts)),
		Saving: SavingResponse{
			HasSaving: p.Saving.HasSaving,
			Amount:    currency.ToMoneyResponse(p.Saving.SavingAmount),
			Percent:   p.Saving.SavingPercent,
		},
	}
	if p.OfferPrice != nil {
		m := currency.ToMoneyResponse(*p.OfferPrice)
		resp.OfferPrice = &m
	}
	if p.LowestPrice != nil {
		m := currency.ToMoneyResponse(*p.LowestPrice)
		resp.LowestPrice = &m
	}
	if p.MinTierPrice != nil {
		m := currency.ToMoneyResponse(*p.MinTierPrice)
		resp.MinTierPrice = &m
	}
	for _, d := range p.AppliedDiscounts {
		resp.AppliedDiscounts = append(resp.AppliedDiscounts, AppliedDiscountResponse{ID: d.ID, Name: d.Name})
	}
	for _, a := range p.AttributePrices {
		resp.AttributePrices = append(resp.AttributePrices, AttributePriceResponse{
			AttributeValueID: a.AttributeValueID,
			Name:             a.Name,
			PriceAdjustment:  a.PriceAdjustment,
		})
	}
	return resp
}
