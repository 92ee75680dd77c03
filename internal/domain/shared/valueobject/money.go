package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Money is a value object representing a monetary amount in a currency.
// It is immutable - all operations return new Money instances.
type Money struct {
	amount          decimal.Decimal
	currency        *Currency
	hideCurrency    bool
	showTax         bool
	taxSuffixFormat string
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency *Currency) (Money, error) {
	if currency == nil {
		return Money{}, errors.New("currency cannot be nil")
	}
	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64, currency *Currency) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromInt creates Money from an int64 value
func NewMoneyFromInt(amount int64, currency *Currency) (Money, error) {
	return NewMoney(decimal.NewFromInt(amount), currency)
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency *Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// MustNewMoney creates Money and panics on a nil currency
func MustNewMoney(amount decimal.Decimal, currency *Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency *Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the raw, unrounded amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency, nil for the zero Money
func (m Money) Currency() *Currency {
	return m.currency
}

// CurrencyCode returns the ISO code of the currency or an empty string
func (m Money) CurrencyCode() string {
	if m.currency == nil {
		return ""
	}
	return m.currency.Code
}

// DecimalDigits returns the number of significant decimal digits of the currency
func (m Money) DecimalDigits() int32 {
	return m.currency.DecimalDigits()
}

// RoundedAmount rounds the amount half away from zero to the currency precision
func (m Money) RoundedAmount() decimal.Decimal {
	return m.amount.Round(m.DecimalDigits())
}

// TruncatedAmount truncates the amount toward zero to the currency precision
func (m Money) TruncatedAmount() decimal.Decimal {
	return m.amount.Truncate(m.DecimalDigits())
}

// HideCurrency reports whether formatting omits the currency symbol by default
func (m Money) HideCurrency() bool {
	return m.hideCurrency
}

// ShowTax reports whether formatting appends the tax suffix by default
func (m Money) ShowTax() bool {
	return m.showTax
}

// TaxSuffixFormat returns the printf template used for the tax suffix
func (m Money) TaxSuffixFormat() string {
	return m.taxSuffixFormat
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// WithHiddenCurrency returns a copy that hides or shows the currency when formatted
func (m Money) WithHiddenCurrency(hide bool) Money {
	m.hideCurrency = hide
	return m
}

// WithTax returns a copy that renders a tax suffix, e.g. "%s incl. tax".
// An empty format disables the suffix.
func (m Money) WithTax(format string) Money {
	m.taxSuffixFormat = format
	m.showTax = format != ""
	return m
}

// Change returns a Money with a new amount keeping the display options.
// A nil currency keeps the current one.
func (m Money) Change(amount decimal.Decimal, currency *Currency) Money {
	m.amount = amount
	if currency != nil {
		m.currency = currency
	}
	return m
}

func (m Money) withAmount(amount decimal.Decimal) Money {
	m.amount = amount
	return m
}

func (m Money) guardCurrency(other Money) error {
	if !m.currency.SameAs(other.currency) {
		return fmt.Errorf("%w: %s and %s", shared.ErrCurrencyMismatch, m.CurrencyCode(), other.CurrencyCode())
	}
	return nil
}

// Equals returns true if both values are zero, or amounts and currencies match
func (m Money) Equals(other Money) bool {
	if m.amount.IsZero() && other.amount.IsZero() {
		return true
	}
	return m.currency.SameAs(other.currency) && m.amount.Equal(other.amount)
}

// EqualsAmount compares the raw amount with a scalar
func (m Money) EqualsAmount(amount decimal.Decimal) bool {
	return m.amount.Equal(amount)
}

// CompareAmount compares the raw amount with a scalar: -1, 0 or +1
func (m Money) CompareAmount(amount decimal.Decimal) int {
	return m.amount.Cmp(amount)
}

// Compare returns -1, 0 or +1.
// Returns error if currencies don't match
func (m Money) Compare(other Money) (int, error) {
	if err := m.guardCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c < 0, err
}

// LessThanOrEqual returns true if this Money is less than or equal to the other
func (m Money) LessThanOrEqual(other Money) (bool, error) {
	c, err := m.Compare(other)
	return err == nil && c <= 0, err
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c > 0, err
}

// GreaterThanOrEqual returns true if this Money is greater than or equal to the other
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	c, err := m.Compare(other)
	return err == nil && c >= 0, err
}

// Add returns a new Money with the sum of both amounts.
// Returns error if currencies don't match
func (m Money) Add(other Money) (Money, error) {
	if err := m.guardCurrency(other); err != nil {
		return Money{}, err
	}
	return m.withAmount(m.amount.Add(other.amount)), nil
}

// MustAdd adds two Money values, panics if currencies don't match
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract returns a new Money with the difference.
// Returns error if currencies don't match
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.guardCurrency(other); err != nil {
		return Money{}, err
	}
	return m.withAmount(m.amount.Sub(other.amount)), nil
}

// MustSubtract subtracts two Money values, panics if currencies don't match
func (m Money) MustSubtract(other Money) Money {
	result, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Multiply returns the product of both amounts in the shared currency
func (m Money) Multiply(other Money) (Money, error) {
	if err := m.guardCurrency(other); err != nil {
		return Money{}, err
	}
	return m.withAmount(m.amount.Mul(other.amount)), nil
}

// Divide returns the quotient of both amounts in the shared currency
func (m Money) Divide(other Money) (Money, error) {
	if err := m.guardCurrency(other); err != nil {
		return Money{}, err
	}
	if other.amount.IsZero() {
		return Money{}, shared.ErrDivideByZero
	}
	return m.withAmount(m.amount.Div(other.amount)), nil
}

// AddAmount adds a scalar amount
func (m Money) AddAmount(amount decimal.Decimal) Money {
	return m.withAmount(m.amount.Add(amount))
}

// SubtractAmount subtracts a scalar amount
func (m Money) SubtractAmount(amount decimal.Decimal) Money {
	return m.withAmount(m.amount.Sub(amount))
}

// MultiplyBy returns a new Money multiplied by the given factor
func (m Money) MultiplyBy(factor decimal.Decimal) Money {
	return m.withAmount(m.amount.Mul(factor))
}

// MultiplyByInt returns a new Money multiplied by an integer
func (m Money) MultiplyByInt(factor int64) Money {
	return m.MultiplyBy(decimal.NewFromInt(factor))
}

// DivideBy returns a new Money divided by the given divisor.
// Returns error if divisor is zero
func (m Money) DivideBy(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, shared.ErrDivideByZero
	}
	return m.withAmount(m.amount.Div(divisor)), nil
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return m.withAmount(m.amount.Neg())
}

// Abs returns a new Money with the absolute value
func (m Money) Abs() Money {
	return m.withAmount(m.amount.Abs())
}

// Percentage returns percent/100 of the amount
func (m Money) Percentage(percent decimal.Decimal) Money {
	return m.withAmount(m.amount.Mul(percent).Div(decimal.NewFromInt(100)))
}

// Round rounds to the currency precision when forced or when the currency
// has order item rounding enabled. Otherwise the value is returned as is.
func (m Money) Round(force bool) Money {
	if m.currency != nil && (force || m.currency.RoundOrderItemsEnabled) {
		return m.withAmount(m.RoundedAmount())
	}
	return m
}

// RoundTotal applies the currency's cash rounding for order totals
func (m Money) RoundTotal() Money {
	return m.withAmount(m.currency.RoundToNearest(m.amount))
}

// Exchange converts the amount into the target currency.
// Display options are preserved.
func (m Money) Exchange(to *Currency) (Money, error) {
	if to == nil {
		return Money{}, errors.New("target currency cannot be nil")
	}
	if m.currency.SameAs(to) {
		return m, nil
	}
	if m.currency == nil {
		return Money{}, errors.New("cannot exchange money without a currency")
	}
	if to.Rate.IsZero() {
		return Money{}, fmt.Errorf("exchange to %s: %w", to.Code, shared.ErrDivideByZero)
	}
	m.amount = m.amount.Mul(m.currency.Rate).Div(to.Rate)
	m.currency = to
	return m, nil
}

// Allocate evenly distributes the amount over n parts.
//
// The amount is taken at currency precision. Every part is either low or
// low plus one smallest unit; the first r parts carry the extra unit where
// r is the remainder, so the parts always sum up to the rounded amount.
func (m Money) Allocate(n int) ([]Money, error) {
	if n <= 0 {
		return nil, errors.New("parts must be positive")
	}

	digits := m.DecimalDigits()
	units := m.RoundedAmount().Shift(digits)
	low, rem := units.QuoRem(decimal.NewFromInt(int64(n)), 0)

	unit := decimal.New(1, -digits)
	lowAmount := low.Shift(-digits)
	highAmount := lowAmount.Add(unit)
	if rem.IsNegative() {
		highAmount = lowAmount.Sub(unit)
	}

	extra := int(rem.Abs().IntPart())
	result := make([]Money, n)
	for i := range n {
		if i < extra {
			result[i] = m.withAmount(highAmount)
		} else {
			result[i] = m.withAmount(lowAmount)
		}
	}
	return result, nil
}

// Ratio returns numerator / denominator.
// A zero numerator yields zero without checking the denominator.
func Ratio(numerator, denominator Money) (decimal.Decimal, error) {
	if numerator.IsZero() {
		return decimal.Zero, nil
	}
	if denominator.IsZero() {
		return decimal.Zero, shared.ErrDivideByZero
	}
	if err := numerator.guardCurrency(denominator); err != nil {
		return decimal.Zero, err
	}
	return numerator.amount.Div(denominator.amount), nil
}

// Min returns the smaller of both values
func Min(a, b Money) (Money, error) {
	c, err := a.Compare(b)
	if err != nil {
		return Money{}, err
	}
	if c > 0 {
		return b, nil
	}
	return a, nil
}

// Max returns the larger of both values
func Max(a, b Money) (Money, error) {
	c, err := a.Compare(b)
	if err != nil {
		return Money{}, err
	}
	if c < 0 {
		return b, nil
	}
	return a, nil
}

// StringFixed returns the amount as a string with fixed decimal places
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

// Float64 returns the amount as a float64 (may lose precision)
func (m Money) Float64() float64 {
	return m.amount.InexactFloat64()
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.amount.String(),
		Currency: m.CurrencyCode(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// Only the currency code is known after decoding; callers resolve the full
// currency through the currency service when rates or formatting matter.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = amount
	if v.Currency != "" {
		m.currency = &Currency{Code: v.Currency, Rate: decimal.NewFromInt(1), RoundNumDecimals: DefaultDecimalDigits}
	}
	return nil
}

// Value implements driver.Valuer for database storage (amount only)
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner. Only the amount is scanned; the currency is
// left untouched.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		return nil
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	case float64:
		m.amount = decimal.NewFromFloat(v)
		return nil
	case int64:
		m.amount = decimal.NewFromInt(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	amount, err := decimal.NewFromString(strVal)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	m.amount = amount
	return nil
}
