package valueobject

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// DefaultDecimalDigits is used when a currency does not configure its own precision
const DefaultDecimalDigits = 2

// RoundingRule decides how an order total is rounded to a cash denominator
type RoundingRule string

const (
	RoundMidpointDown RoundingRule = "midpoint_down"
	RoundMidpointUp   RoundingRule = "midpoint_up"
	AlwaysRoundDown   RoundingRule = "always_down"
	AlwaysRoundUp     RoundingRule = "always_up"
)

// IsValid reports whether the rule is one of the known rounding rules
func (r RoundingRule) IsValid() bool {
	switch r {
	case RoundMidpointDown, RoundMidpointUp, AlwaysRoundDown, AlwaysRoundUp:
		return true
	}
	return false
}

// Currency describes a currency as configured for the store.
//
// Rate is the value of one unit of this currency expressed in the reference
// (primary exchange) currency, so exchanging amount from A to B is
// amount * A.Rate / B.Rate.
type Currency struct {
	ID                         int             `gorm:"primaryKey;autoIncrement" json:"id"`
	Code                       string          `gorm:"column:currency_code;type:varchar(3);uniqueIndex;not null" json:"code"`
	Name                       string          `gorm:"type:varchar(50);not null" json:"name"`
	Symbol                     string          `gorm:"type:varchar(10)" json:"symbol"`
	Rate                       decimal.Decimal `gorm:"type:decimal(18,8);not null" json:"rate"`
	DisplayLocale              string          `gorm:"type:varchar(50)" json:"display_locale"`
	CustomFormatting           string          `gorm:"type:varchar(50)" json:"custom_formatting,omitempty"`
	RoundNumDecimals           int             `gorm:"not null;default:2" json:"round_num_decimals"`
	RoundOrderItemsEnabled     bool            `gorm:"not null;default:false" json:"round_order_items_enabled"`
	RoundOrderTotalEnabled     bool            `gorm:"not null;default:false" json:"round_order_total_enabled"`
	RoundOrderTotalDenominator decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"round_order_total_denominator"`
	RoundOrderTotalRule        RoundingRule    `gorm:"type:varchar(20);not null;default:'midpoint_up'" json:"round_order_total_rule"`
	Published                  bool            `gorm:"not null;default:true" json:"published"`
	DisplayOrder               int             `gorm:"not null;default:0" json:"display_order"`
}

// TableName returns the table name for GORM
func (Currency) TableName() string {
	return "currencies"
}

// NewCurrency creates a published currency with default precision
func NewCurrency(code, name, symbol string, rate decimal.Decimal) (*Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return nil, errors.New("currency code must be a 3 letter ISO 4217 code")
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return nil, errors.New("currency code must contain letters only")
		}
	}
	if !rate.IsPositive() {
		return nil, errors.New("currency rate must be positive")
	}
	return &Currency{
		Code:                code,
		Name:                name,
		Symbol:              symbol,
		Rate:                rate,
		RoundNumDecimals:    DefaultDecimalDigits,
		RoundOrderTotalRule: RoundMidpointUp,
		Published:           true,
	}, nil
}

// DecimalDigits returns the number of significant decimal digits.
// Zero is a valid precision (e.g. JPY).
func (c *Currency) DecimalDigits() int32 {
	if c == nil {
		return DefaultDecimalDigits
	}
	return int32(max(c.RoundNumDecimals, 0))
}

// Language returns the display locale as a language tag, English if unset or invalid
func (c *Currency) Language() language.Tag {
	if c == nil || c.DisplayLocale == "" {
		return language.English
	}
	tag, err := language.Parse(c.DisplayLocale)
	if err != nil {
		return language.English
	}
	return tag
}

// SameAs reports whether both currencies denote the same ISO currency
func (c *Currency) SameAs(other *Currency) bool {
	if c == nil || other == nil {
		return c == nil && other == nil
	}
	return strings.EqualFold(c.Code, other.Code)
}

// RoundToNearest rounds an order total to the configured cash denominator.
// The amount is returned unchanged when total rounding is disabled or no
// denominator is configured.
func (c *Currency) RoundToNearest(amount decimal.Decimal) decimal.Decimal {
	if c == nil || !c.RoundOrderTotalEnabled || !c.RoundOrderTotalDenominator.IsPositive() {
		return amount
	}

	denominator := c.RoundOrderTotalDenominator
	sign := decimal.NewFromInt(int64(amount.Sign()))
	abs := amount.Abs()

	base := abs.Div(denominator).Truncate(0).Mul(denominator)
	remainder := abs.Sub(base)
	half := denominator.Div(decimal.NewFromInt(2))

	up := false
	switch c.RoundOrderTotalRule {
	case RoundMidpointDown:
		up = remainder.GreaterThan(half)
	case AlwaysRoundDown:
		up = false
	case AlwaysRoundUp:
		up = remainder.IsPositive()
	default:
		up = remainder.GreaterThanOrEqual(half)
	}
	if up {
		base = base.Add(denominator)
	}
	return base.Mul(sign)
}
