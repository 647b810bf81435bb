// Package money converts between exact decimal amounts, stored integer minor
// units and display strings. Arithmetic stays in shopspring/decimal; go-money
// supplies ISO-4217 currency metadata and formatting.
package money

import (
	"errors"
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes used by the ledger (ISO-4217).
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
)

// DefaultCurrency is used when configuration names none.
const DefaultCurrency = USD

// Scale is the number of fractional digits persisted for an amount.
const Scale = 2

var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// FromMinor converts stored cents into a decimal amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

// ToMinor converts an amount into cents, rounding half to even.
func ToMinor(d decimal.Decimal) int64 {
	return d.RoundBank(Scale).Shift(Scale).IntPart()
}

// Parse reads a user-supplied amount. Currency symbols, spaces and thousands
// separators are removed; a trailing comma group is read as the decimal part
// ("1.234,56" and "1,234.56" are both 1234.56).
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	for _, sym := range []string{"$", "€", "£", " "} {
		clean = strings.ReplaceAll(clean, sym, "")
	}
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")
	if lastComma > lastDot {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Format renders d with the currency's symbol and separators, rounded to
// cents. Unknown codes fall back to the default currency.
func Format(d decimal.Decimal, currency string) string {
	if gomoney.GetCurrency(currency) == nil {
		currency = DefaultCurrency
	}
	return gomoney.New(ToMinor(d), currency).Display()
}

// Sum adds amounts exactly.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// PercentOf returns part as a percentage of whole, rounded to two places.
// A non-positive whole yields zero.
func PercentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}
