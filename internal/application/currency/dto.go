package currency

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ExchangeRequest converts an amount between two currencies
type ExchangeRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	From   string          `json:"from" binding:"omitempty,len=3"`
	To     string          `json:"to" binding:"required,len=3"`
}

// AllocateRequest splits an amount into equal parts
type AllocateRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency" binding:"omitempty,len=3"`
	Parts    int             `json:"parts" binding:"required,min=1,max=1000"`
}

// UpdateRateRequest sets the exchange rate of a currency against the primary currency
type UpdateRateRequest struct {
	Rate decimal.Decimal `json:"rate" binding:"required"`
}

// CurrencyResponse represents a currency in API responses
type CurrencyResponse struct {
	ID            int             `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Symbol        string          `json:"symbol"`
	Rate          decimal.Decimal `json:"rate"`
	DecimalDigits int32           `json:"decimal_digits"`
	DisplayLocale string          `json:"display_locale,omitempty"`
	IsPrimary     bool            `json:"is_primary"`
}

// MoneyResponse is a money value with its localized rendering
type MoneyResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Formatted string          `json:"formatted"`
}

// ExchangeResponse is the result of a conversion
type ExchangeResponse struct {
	Source MoneyResponse   `json:"source"`
	Result MoneyResponse   `json:"result"`
	Rate   decimal.Decimal `json:"rate"`
}

// AllocateResponse lists the allocated parts
type AllocateResponse struct {
	Total MoneyResponse   `json:"total"`
	Parts []MoneyResponse `json:"parts"`
}

// ToCurrencyResponse converts a currency
func ToCurrencyResponse(c *valueobject.Currency, primaryCode string) CurrencyResponse {
	return CurrencyResponse{
		ID:            c.ID,
		Code:          c.Code,
		Name:          c.Name,
		Symbol:        c.Symbol,
		Rate:          c.Rate,
		DecimalDigits: c.DecimalDigits(),
		DisplayLocale: c.DisplayLocale,
		IsPrimary:     c.Code == primaryCode,
	}
}

// ToMoneyResponse converts a money value using its rounded amount
func ToMoneyResponse(m valueobject.Money) MoneyResponse {
	return MoneyResponse{
		Amount:    m.RoundedAmount(),
		Currency:  m.CurrencyCode(),
		Formatted: m.Formatted(),
	}
}
