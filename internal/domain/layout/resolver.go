package layout

import (
	"slices"

	"github.com/actdesk/backend/internal/domain/act"
)

const minContentWidth = 40.0

// Option configures Resolve
type Option func(*resolver)

// WithFontCandidates replaces the platform font search list
func WithFontCandidates(paths ...string) Option {
	return func(r *resolver) {
		r.fontCandidates = slices.Clone(paths)
	}
}

// WithFileCheck replaces the file existence check used for fonts
func WithFileCheck(exists func(path string) bool) Option {
	return func(r *resolver) {
		r.exists = exists
	}
}

type resolver struct {
	fontCandidates []string
	exists         func(path string) bool
}

// Resolve derives the style sheet for an act. Malformed settings fall back
// to built-in values; it never fails. The only I/O is a font existence check.
func Resolve(a *act.Act, opts ...Option) *StyleSheet {
	r := &resolver{
		fontCandidates: DefaultFontCandidates,
		exists:         fileExists,
	}
	for _, opt := range opts {
		opt(r)
	}

	s := &StyleSheet{}
	s.Page = resolvePage(a.Page)
	s.Margins = resolveMargins(a.Page, s.Page)
	s.ContentWidth = s.Page.Width - s.Margins.Left - s.Margins.Right
	s.Font = r.resolveFont(a.Typography.FontPath, a.Typography.FontFamily)
	s.Text = resolveText(a.Typography)
	s.Table = resolveTable(a.Table, s.ContentWidth)
	s.Signature = resolveSignature(a.Signature)
	s.AutoQR = resolveQR(a.AutoQR)
	s.CustomQR = resolveQR(a.CustomQR)
	s.Watermark = resolveWatermark(a.Watermark)

	logoWidth := positiveOr(a.Typography.LogoWidth, act.DefaultTypographySettings().LogoWidth)
	s.Logo = LogoStyle{Width: min(logoWidth, s.ContentWidth)}
	return s
}

func resolvePage(p act.PageSettings) PageGeometry {
	size := p.Size
	if !size.IsValid() {
		size = act.PageSizeA4
	}
	orientation := p.Orientation
	if !orientation.IsValid() {
		orientation = act.OrientationPortrait
	}
	w, h := size.Dimensions()
	if orientation == act.OrientationLandscape {
		w, h = h, w
	}
	return PageGeometry{Size: size, Orientation: orientation, Width: w, Height: h}
}

func resolveMargins(p act.PageSettings, page PageGeometry) Margins {
	def := act.DefaultPageSettings()
	m := Margins{
		Top:    nonNegativeOr(p.MarginTop, def.MarginTop),
		Right:  nonNegativeOr(p.MarginRight, def.MarginRight),
		Bottom: nonNegativeOr(p.MarginBottom, def.MarginBottom),
		Left:   nonNegativeOr(p.MarginLeft, def.MarginLeft),
	}
	if page.Width-m.Left-m.Right < minContentWidth || page.Height-m.Top-m.Bottom < minContentWidth {
		return Margins{Top: def.MarginTop, Right: def.MarginRight, Bottom: def.MarginBottom, Left: def.MarginLeft}
	}
	return m
}

func resolveText(t act.TypographySettings) TextStyles {
	def := act.DefaultTypographySettings()
	spacing := positiveOr(t.LineSpacing, def.LineSpacing)
	headingSpacing := positiveOr(t.HeadingLineSpacing, def.HeadingLineSpacing)
	text := ColorOr(t.TextColor, Black)
	heading := ColorOr(t.HeadingColor, ColorOr(def.HeadingColor, Black))
	title := ColorOr(t.TitleColor, ColorOr(def.TitleColor, Black))

	style := func(size, fallback, mult float64, color RGB) TextStyle {
		sz := positiveOr(size, fallback)
		return TextStyle{Size: sz, Leading: sz * mult, Color: color}
	}

	return TextStyles{
		Head:    style(t.HeadFontSize, def.HeadFontSize, headingSpacing, heading),
		Normal:  style(t.NormalFontSize, def.NormalFontSize, spacing, text),
		Small:   style(t.SmallFontSize, def.SmallFontSize, spacing, text),
		Table:   style(t.TableFontSize, def.TableFontSize, spacing, text),
		Title:   style(t.TitleFontSize, def.TitleFontSize, headingSpacing, title),
		Heading: style(t.HeadingFontSize, def.HeadingFontSize, headingSpacing, heading),
	}
}

func resolveTable(t act.TableSettings, contentWidth float64) TableStyle {
	def := act.DefaultTableSettings()
	enabled := t.EnabledColumns()
	widths := ResolveColumnWidths(t.ColumnWidths, enabled, contentWidth)

	contentAlign := t.ContentAlign
	if !contentAlign.IsValid() {
		contentAlign = act.AlignLeft
	}
	columns := make([]ColumnSpec, len(enabled))
	for i, col := range enabled {
		align := contentAlign
		switch col {
		case act.ColumnNumber:
			align = act.AlignCenter
		case act.ColumnQuantity, act.ColumnPrice, act.ColumnAmount:
			align = act.AlignRight
		}
		columns[i] = ColumnSpec{Column: col, Width: widths[i], Align: align}
	}

	headerStyle := t.HeaderFontStyle
	switch headerStyle {
	case act.FontStyleRegular, act.FontStyleBold, act.FontStyleItalic, act.FontStyleBoldItalic:
	default:
		headerStyle = def.HeaderFontStyle
	}

	return TableStyle{
		Columns:          columns,
		HeaderBackground: ColorOr(t.HeaderBackground, ColorOr(def.HeaderBackground, White)),
		HeaderText:       ColorOr(t.HeaderTextColor, Black),
		Border:           ColorOr(t.BorderColor, ColorOr(def.BorderColor, Black)),
		Grid:             ColorOr(t.GridColor, ColorOr(def.GridColor, Black)),
		AlternateRow:     ColorOr(t.AlternateRowColor, ColorOr(def.AlternateRowColor, White)),
		AlternateRows:    t.AlternateRows,
		BorderThickness:  nonNegativeOr(t.BorderThickness, def.BorderThickness),
		CellPadding:      nonNegativeOr(t.CellPadding, def.CellPadding),
		HeaderFontStyle:  headerStyle,
	}
}

func resolveSignature(s act.SignatureSettings) SignatureStyle {
	def := act.DefaultSignatureSettings()
	lineLength := s.LineLength
	if lineLength <= 0 {
		lineLength = def.LineLength
	}
	return SignatureStyle{
		ImageWidth:    positiveOr(s.ImageWidth, def.ImageWidth),
		ImageHeight:   positiveOr(s.ImageHeight, def.ImageHeight),
		LineLength:    lineLength,
		LineThickness: positiveOr(s.LineThickness, def.LineThickness),
		FontSize:      positiveOr(s.FontSize, def.FontSize),
		Spacing:       nonNegativeOr(s.Spacing, def.Spacing),
	}
}

func resolveQR(q act.QRCodeSettings) QRStyle {
	def := act.DefaultQRCodeSettings(act.QRBottomRight)
	return QRStyle{
		Size:    positiveOr(q.Size, def.Size),
		OffsetX: q.OffsetX,
		OffsetY: q.OffsetY,
		Color:   ColorOr(q.Color, Black),
	}
}

func resolveWatermark(w act.WatermarkSettings) WatermarkStyle {
	def := act.DefaultWatermarkSettings()
	opacity := w.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = def.Opacity
	}
	return WatermarkStyle{
		FontSize: positiveOr(w.FontSize, def.FontSize),
		Color:    ColorOr(w.Color, ColorOr(def.Color, Black)),
		Rotation: w.Rotation,
		Opacity:  opacity,
	}
}

func positiveOr(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}

func nonNegativeOr(v, fallback float64) float64 {
	if v >= 0 {
		return v
	}
	return fallback
}
