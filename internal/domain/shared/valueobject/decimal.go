package valueobject

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrInvalidDecimal is returned when a string cannot be read as a decimal number
var ErrInvalidDecimal = errors.New("invalid decimal")

// ParseDecimal reads a decimal number the way people type it into a form:
// surrounding and inner whitespace (including no-break spaces) is ignored and
// either a comma or a dot may be the decimal separator. When both appear, the
// right-most one is the decimal separator and the others are digit grouping.
func ParseDecimal(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidDecimal)
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(cleaned, ",") > 1 {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
		}
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	return d, nil
}

// ParseDecimalOrZero is ParseDecimal with malformed input mapped to zero
func ParseDecimalOrZero(s string) decimal.Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RoundMoney rounds half-to-even to MoneyPlaces
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyPlaces)
}

// FormatDecimal renders d with a fixed number of places using the given
// decimal separator, grouping the integer digits in threes with groupSep.
func FormatDecimal(d decimal.Decimal, places int32, decimalSep, groupSep string) string {
	if decimalSep == "" {
		decimalSep = "."
	}
	fixed := d.StringFixedBank(places)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	if groupSep != "" && len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteString(groupSep)
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	out := intPart
	if fracPart != "" {
		out += decimalSep + fracPart
	}
	if negative {
		out = "-" + out
	}
	return out
}

// FormatQuantity renders a quantity without trailing zeros ("1", "2.5")
func FormatQuantity(d decimal.Decimal, decimalSep string) string {
	s := d.String()
	if decimalSep != "" && decimalSep != "." {
		s = strings.Replace(s, ".", decimalSep, 1)
	}
	return s
}

// EncodeDecimal renders d as an exact string that keeps its scale,
// so "21.0" stays "21.0" rather than collapsing to "21".
func EncodeDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
