package layout

import (
	"math"
	"strconv"
	"strings"

	"github.com/actdesk/backend/internal/domain/act"
)

// defaultColumnWidths are the built-in widths in millimeters
var defaultColumnWidths = map[act.Column]float64{
	act.ColumnNumber:      10,
	act.ColumnDescription: 60,
	act.ColumnSerial:      25,
	act.ColumnQuantity:    18,
	act.ColumnUnit:        15,
	act.ColumnPrice:       22,
	act.ColumnAmount:      25,
	act.ColumnWarranty:    22,
	act.ColumnNotes:       30,
}

// ResolveColumnWidths turns a comma-separated list of millimeter widths into
// one width per enabled column, scaled to fill contentWidth.
//
// The list is used as-is when it has one token per enabled column. A list
// with one token per possible column is narrowed to the enabled ones. Any
// other count, or any token that is not a positive number, selects the
// built-in widths instead. It never fails.
func ResolveColumnWidths(list string, enabled []act.Column, contentWidth float64) []float64 {
	if len(enabled) == 0 {
		return []float64{}
	}

	widths := fallbackWidths(enabled)
	if declared, ok := parseWidths(list); ok {
		all := act.AllColumns()
		switch len(declared) {
		case len(enabled):
			widths = declared
		case len(all):
			byColumn := make(map[act.Column]float64, len(all))
			for i, col := range all {
				byColumn[col] = declared[i]
			}
			widths = make([]float64, len(enabled))
			for i, col := range enabled {
				widths[i] = byColumn[col]
			}
		}
	}

	return scaleToWidth(widths, contentWidth)
}

func parseWidths(list string) ([]float64, bool) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, false
	}
	tokens := strings.Split(list, ",")
	out := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func fallbackWidths(enabled []act.Column) []float64 {
	out := make([]float64, len(enabled))
	for i, col := range enabled {
		w, ok := defaultColumnWidths[col]
		if !ok {
			w = 20
		}
		out[i] = w
	}
	return out
}

func scaleToWidth(widths []float64, target float64) []float64 {
	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	if target <= 0 || sum <= 0 {
		return widths
	}
	factor := target / sum
	out := make([]float64, len(widths))
	for i, w := range widths {
		out[i] = w * factor
	}
	return out
}
