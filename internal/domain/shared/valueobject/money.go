package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code
type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
)

// DefaultCurrency is used when an act has no valid currency
const DefaultCurrency = EUR

// MoneyPlaces is the number of fractional digits money is kept and shown with
const MoneyPlaces int32 = 2

// ErrCurrencyMismatch is returned when amounts in different currencies meet
var ErrCurrencyMismatch = errors.New("currency mismatch")

// IsValid reports whether c is three upper-case letters
func (c Currency) IsValid() bool {
	return len(c) == 3 && strings.IndexFunc(string(c), func(r rune) bool { return r < 'A' || r > 'Z' }) < 0
}

func (c Currency) String() string {
	return string(c)
}

// NormalizeCurrency trims and upper-cases code, falling back to
// DefaultCurrency when the result is not a valid code
func NormalizeCurrency(code string) Currency {
	if c := Currency(strings.ToUpper(strings.TrimSpace(code))); c.IsValid() {
		return c
	}
	return DefaultCurrency
}

// Money is an amount rounded half-to-even to MoneyPlaces in one currency.
// Values are immutable.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// MoneyOf rounds amount to MoneyPlaces
func MoneyOf(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: RoundMoney(amount), currency: currency}
}

// Zero is no money in currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

// Plus adds other, which must be in the same currency
func (m Money) Plus(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return MoneyOf(m.amount.Add(other.amount), m.currency), nil
}

// Percent is rate percent of m, rounded once at the end
func (m Money) Percent(rate decimal.Decimal) Money {
	return MoneyOf(m.amount.Mul(rate).Div(decimal.NewFromInt(100)), m.currency)
}

// Equals compares amount and currency
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Fixed is the amount with exactly MoneyPlaces digits and a dot separator
func (m Money) Fixed() string {
	return m.amount.StringFixed(MoneyPlaces)
}

// Format renders the amount with the given separators. An empty groupSep
// disables digit grouping.
func (m Money) Format(decimalSep, groupSep string) string {
	return FormatDecimal(m.amount, MoneyPlaces, decimalSep, groupSep)
}

// String is the fixed amount followed by the currency code
func (m Money) String() string {
	return m.Fixed() + " " + string(m.currency)
}
