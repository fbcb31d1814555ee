package act

import (
	"github.com/actdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LineItem is one row of the act's itemized table
type LineItem struct {
	Description  string
	Quantity     decimal.Decimal
	Unit         string
	UnitPrice    decimal.Decimal
	SerialNumber string
	Warranty     string
	Notes        string
	ImagePath    string
}

// NewLineItem creates a line item from form text. Quantity and price are
// parsed leniently and fall back to zero when malformed.
func NewLineItem(description, quantity, unit, unitPrice string) LineItem {
	return LineItem{
		Description: description,
		Quantity:    valueobject.ParseDecimalOrZero(quantity),
		Unit:        unit,
		UnitPrice:   valueobject.ParseDecimalOrZero(unitPrice),
	}
}

// Amount is quantity times unit price rounded half-to-even to two places.
// It is always derived, never stored.
func (i LineItem) Amount() decimal.Decimal {
	return valueobject.RoundMoney(i.Quantity.Mul(i.UnitPrice))
}

// Equal compares two items field by field, decimals by value
func (i LineItem) Equal(other LineItem) bool {
	return i.Description == other.Description &&
		i.Quantity.Equal(other.Quantity) &&
		i.Unit == other.Unit &&
		i.UnitPrice.Equal(other.UnitPrice) &&
		i.SerialNumber == other.SerialNumber &&
		i.Warranty == other.Warranty &&
		i.Notes == other.Notes &&
		i.ImagePath == other.ImagePath
}

// Attachment is an image printed after the main content, in list order
type Attachment struct {
	Path    string
	Caption string
}
