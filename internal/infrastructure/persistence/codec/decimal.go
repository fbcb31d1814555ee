package codec

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/actdesk/backend/internal/domain/shared/valueobject"
)

// Decimal is written as an exact JSON string. On read it also accepts a
// JSON number, which older files used, and maps malformed text to zero.
type Decimal struct {
	decimal.Decimal
}

// NewDecimal wraps d
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// MarshalJSON implements json.Marshaler
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(valueobject.EncodeDecimal(d.Decimal))
}

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		d.Decimal = decimal.Zero
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			d.Decimal = decimal.Zero
			return nil
		}
		d.Decimal = valueobject.ParseDecimalOrZero(s)
	default:
		v, err := decimal.NewFromString(string(data))
		if err != nil {
			v = decimal.Zero
		}
		d.Decimal = v
	}
	return nil
}
