package valueobject

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatOptions controls Money.Format. Nil pointers fall back to the
// display options carried by the Money value.
type FormatOptions struct {
	ShowCurrency *bool
	UseISOCode   bool
	ShowTax      *bool
}

// Languages that place the currency symbol after the amount
var symbolSuffixLanguages = map[language.Base]bool{}

func init() {
	for _, code := range []string{"de", "fr", "es", "it", "pl", "cs", "sk", "sv", "da", "fi", "nb", "no", "ru", "uk", "hu", "ro", "bg", "hr", "sl", "lt", "lv", "et", "tr", "vi"} {
		if base, err := language.ParseBase(code); err == nil {
			symbolSuffixLanguages[base] = true
		}
	}
}

// String renders the rounded amount with the value's own display options
func (m Money) String() string {
	return m.Format(FormatOptions{})
}

// Formatted renders the rounded amount with the currency symbol
func (m Money) Formatted() string {
	show := true
	return m.Format(FormatOptions{ShowCurrency: &show})
}

// Format renders the rounded amount localized by the currency display locale
func (m Money) Format(opts FormatOptions) string {
	if m.currency == nil {
		return m.RoundedAmount().StringFixed(DefaultDecimalDigits)
	}

	showTax := m.showTax
	if opts.ShowTax != nil {
		showTax = *opts.ShowTax
	}

	tag := m.currency.Language()
	printer := message.NewPrinter(tag)
	num := formatAmount(printer, m.RoundedAmount(), m.DecimalDigits())

	var formatted string
	if m.currency.CustomFormatting != "" {
		formatted = fmt.Sprintf(m.currency.CustomFormatting, num)
	} else {
		showCurrency := !m.hideCurrency
		if opts.ShowCurrency != nil {
			showCurrency = *opts.ShowCurrency
		}
		sym := m.symbol(showCurrency, opts.UseISOCode)
		formatted = placeSymbol(tag, num, sym, sym == m.currency.Code)
	}

	if showTax && m.taxSuffixFormat != "" {
		return fmt.Sprintf(m.taxSuffixFormat, formatted)
	}
	return formatted
}

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// formatAmount groups the integer digits for the locale and appends the exact
// fraction digits. number.Decimal only takes machine numbers, so passing a
// float would lose digits on large amounts.
func formatAmount(printer *message.Printer, amount decimal.Decimal, digits int32) string {
	abs := amount.Abs()
	if abs.GreaterThan(maxInt64) {
		return amount.StringFixed(digits)
	}

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteString("-")
	}
	b.WriteString(printer.Sprint(number.Decimal(abs.IntPart())))
	if digits > 0 {
		fixed := abs.StringFixed(digits)
		b.WriteString(decimalSeparator(printer))
		b.WriteString(fixed[strings.IndexByte(fixed, '.')+1:])
	}
	return b.String()
}

func decimalSeparator(printer *message.Printer) string {
	sample := printer.Sprint(number.Decimal(1.5, number.Scale(1)))
	return strings.Trim(sample, "15")
}

func (m Money) symbol(show, useISOCode bool) string {
	if !show {
		return ""
	}
	if useISOCode || m.currency.Symbol == "" {
		return m.currency.Code
	}
	return m.currency.Symbol
}

func placeSymbol(tag language.Tag, num, symbol string, isoCode bool) string {
	if symbol == "" {
		return num
	}
	base, _ := tag.Base()
	if symbolSuffixLanguages[base] {
		return num + " " + symbol
	}
	if isoCode {
		return symbol + " " + num
	}
	return symbol + num
}
