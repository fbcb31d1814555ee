package act

import (
	"github.com/shopspring/decimal"

	"github.com/actdesk/backend/internal/domain/shared/valueobject"
)

// Totals are derived from the line items and never persisted
type Totals struct {
	Subtotal   valueobject.Money
	VAT        valueobject.Money
	Grand      valueobject.Money
	VATRate    decimal.Decimal
	IncludeVAT bool
}

// ComputeTotals sums the rounded item amounts and applies VAT when included.
// Each total is rounded half-to-even to two places; intermediate sums are exact.
func ComputeTotals(items []LineItem, vatRate decimal.Decimal, includeVAT bool, currency valueobject.Currency) Totals {
	currency = valueobject.NormalizeCurrency(string(currency))

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount())
	}
	subtotal := valueobject.MoneyOf(sum, currency)

	vat := valueobject.Zero(currency)
	if includeVAT {
		vat = subtotal.Percent(vatRate)
	}
	// both are in currency, so Plus cannot fail
	grand, _ := subtotal.Plus(vat)

	return Totals{
		Subtotal:   subtotal,
		VAT:        vat,
		Grand:      grand,
		VATRate:    vatRate,
		IncludeVAT: includeVAT,
	}
}
