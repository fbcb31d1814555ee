// Package layout resolves the flat presentation settings of an act into a
// structured style sheet that renderers consume.
package layout

import "github.com/actdesk/backend/internal/domain/act"

// PointsPerMM converts typographic points to millimeters
const PointsPerMM = 72.0 / 25.4

// PageGeometry is the resolved page size in millimeters
type PageGeometry struct {
	Size        act.PageSize
	Orientation act.Orientation
	Width       float64
	Height      float64
}

// Margins are absolute page margins in millimeters
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// FontRef names the font renderers should use
type FontRef struct {
	// Family is the family name renderers register the font under
	Family string
	// Path is the TrueType file to embed; empty means use Fallback directly
	Path string
	// Fallback is a built-in family used when Path is empty or fails to load
	Fallback string
}

// IsEmbedded reports whether a font file should be embedded
func (f FontRef) IsEmbedded() bool {
	return f.Path != ""
}

// TextStyle is one named paragraph style
type TextStyle struct {
	Size    float64 // points
	Leading float64 // points
	Color   RGB
}

// LeadingMM returns the leading in millimeters
func (s TextStyle) LeadingMM() float64 {
	return s.Leading / PointsPerMM
}

// TextStyles groups the named styles
type TextStyles struct {
	Head    TextStyle
	Normal  TextStyle
	Small   TextStyle
	Table   TextStyle
	Title   TextStyle
	Heading TextStyle
}

// ColumnSpec is one resolved table column
type ColumnSpec struct {
	Column act.Column
	Width  float64
	Align  act.Alignment
}

// TableStyle is the resolved line-item table geometry
type TableStyle struct {
	Columns          []ColumnSpec
	HeaderBackground RGB
	HeaderText       RGB
	Border           RGB
	Grid             RGB
	AlternateRow     RGB
	AlternateRows    bool
	BorderThickness  float64
	CellPadding      float64
	HeaderFontStyle  act.FontStyle
}

// Widths returns the column widths in order
func (t TableStyle) Widths() []float64 {
	out := make([]float64, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Width
	}
	return out
}

// SignatureStyle is the resolved signature block geometry
type SignatureStyle struct {
	ImageWidth    float64
	ImageHeight   float64
	LineLength    int
	LineThickness float64
	FontSize      float64
	Spacing       float64
}

// QRStyle is the resolved geometry of one QR block
type QRStyle struct {
	Size    float64
	OffsetX float64
	OffsetY float64
	Color   RGB
}

// WatermarkStyle is the resolved watermark appearance
type WatermarkStyle struct {
	FontSize float64
	Color    RGB
	Rotation float64
	Opacity  float64
}

// LogoStyle is the resolved logo geometry
type LogoStyle struct {
	Width float64
}

// StyleSheet is everything a renderer needs to know about appearance
type StyleSheet struct {
	Page         PageGeometry
	Margins      Margins
	ContentWidth float64
	Font         FontRef
	Text         TextStyles
	Table        TableStyle
	Signature    SignatureStyle
	AutoQR       QRStyle
	CustomQR     QRStyle
	Watermark    WatermarkStyle
	Logo         LogoStyle
}

// QRStyleFor returns the style of the QR block of the given kind
func (s *StyleSheet) QRStyleFor(kind string) QRStyle {
	if kind == "custom" {
		return s.CustomQR
	}
	return s.AutoQR
}
