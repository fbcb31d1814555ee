package act

import (
	"github.com/actdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DefaultTitle is the document title printed when none is configured
const DefaultTitle = "PIEŅEMŠANAS-NODOŠANAS AKTS"

// DefaultDateFormat is the date pattern used on documents
const DefaultDateFormat = "DD.MM.YYYY"

// DefaultColumnWidths lists the default width in mm of every column, in
// table order. Disabled optional columns are skipped.
const DefaultColumnWidths = "10,60,25,18,15,22,25,22,30"

// LegalTerms holds the free-text clauses of an act
type LegalTerms struct {
	Notes               string
	DisputeResolution   string
	Confidentiality     bool
	PenaltyRate         decimal.Decimal
	DeliveryTerms       string
	Insurance           bool
	AdditionalTerms     string
	ReferencedDocuments string
}

// VATSettings controls VAT computation and its presentation
type VATSettings struct {
	Rate          decimal.Decimal
	Include       bool
	ShowBreakdown bool
}

// PageSettings describes page geometry. Margins are in millimeters.
type PageSettings struct {
	Size         PageSize
	Orientation  Orientation
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64
}

// TypographySettings describes fonts, colors and document chrome.
// Sizes are in points, colors are hex strings.
type TypographySettings struct {
	FontPath           string
	FontFamily         string
	HeadFontSize       float64
	NormalFontSize     float64
	SmallFontSize      float64
	TableFontSize      float64
	TitleFontSize      float64
	HeadingFontSize    float64
	TextColor          string
	HeadingColor       string
	TitleColor         string
	LineSpacing        float64
	HeadingLineSpacing float64
	DateFormat         string
	Title              string
	LogoPath           string
	LogoWidth          float64
	FooterText         string
}

// TableSettings describes the line-item table
type TableSettings struct {
	ColumnWidths       string
	HeaderBackground   string
	HeaderTextColor    string
	BorderColor        string
	GridColor          string
	BorderThickness    float64
	CellPadding        float64
	AlternateRows      bool
	AlternateRowColor  string
	HeaderFontStyle    FontStyle
	ContentAlign       Alignment
	ShowSerialColumn   bool
	ShowWarrantyColumn bool
	ShowNotesColumn    bool
}

// EnabledColumns returns the columns in table order: the six fixed
// columns plus whichever optional columns are switched on.
func (t TableSettings) EnabledColumns() []Column {
	cols := []Column{ColumnNumber, ColumnDescription}
	if t.ShowSerialColumn {
		cols = append(cols, ColumnSerial)
	}
	cols = append(cols, ColumnQuantity, ColumnUnit, ColumnPrice, ColumnAmount)
	if t.ShowWarrantyColumn {
		cols = append(cols, ColumnWarranty)
	}
	if t.ShowNotesColumn {
		cols = append(cols, ColumnNotes)
	}
	return cols
}

// AllColumns returns every column in table order
func AllColumns() []Column {
	return []Column{
		ColumnNumber, ColumnDescription, ColumnSerial, ColumnQuantity,
		ColumnUnit, ColumnPrice, ColumnAmount, ColumnWarranty, ColumnNotes,
	}
}

// SignatureSettings describes the signature block
type SignatureSettings struct {
	ShowLines                bool
	AcceptorImagePath        string
	TransferorImagePath      string
	ImageWidth               float64
	ImageHeight              float64
	LineLength               int
	LineThickness            float64
	FontSize                 float64
	Spacing                  float64
	Electronic               bool
	ShowElectronicDisclaimer bool
	DisclaimerText           string
}

// CoverPageSettings describes the optional cover page
type CoverPageSettings struct {
	Enabled  bool
	Title    string
	Subtitle string
	ShowLogo bool
}

// QRCodeSettings describes one QR block. Size and offsets are in millimeters.
type QRCodeSettings struct {
	Enabled  bool
	Data     string
	Size     float64
	Position QRPosition
	OffsetX  float64
	OffsetY  float64
	Color    string
}

// WatermarkSettings describes the diagonal page watermark
type WatermarkSettings struct {
	Enabled  bool
	Text     string
	FontSize float64
	Color    string
	Rotation float64
	Opacity  float64
}

// PDF permission bits as defined for the standard security handler
const (
	PermissionPrint    = 4
	PermissionModify   = 8
	PermissionCopy     = 16
	PermissionAnnotate = 32
)

// SecuritySettings describes PDF encryption
type SecuritySettings struct {
	Encrypt       bool
	UserPassword  string
	OwnerPassword string
	AllowPrint    bool
	AllowModify   bool
	AllowCopy     bool
	AllowAnnotate bool
}

// PermissionMask combines the four permission flags into a bitmask
func (s SecuritySettings) PermissionMask() int {
	mask := 0
	if s.AllowPrint {
		mask |= PermissionPrint
	}
	if s.AllowModify {
		mask |= PermissionModify
	}
	if s.AllowCopy {
		mask |= PermissionCopy
	}
	if s.AllowAnnotate {
		mask |= PermissionAnnotate
	}
	return mask
}

// OutputSettings toggles page chrome
type OutputSettings struct {
	ShowPageNumbers bool
	ShowGeneratedAt bool
}

// DefaultsSettings seeds new acts and new line items
type DefaultsSettings struct {
	Country  string
	City     string
	Unit     string
	Currency valueobject.Currency
	VATRate  decimal.Decimal
}

func defaultVATRate() decimal.Decimal {
	return decimal.RequireFromString("21.0")
}

// DefaultPageSettings returns A4 portrait with 15mm side margins
func DefaultPageSettings() PageSettings {
	return PageSettings{
		Size:         PageSizeA4,
		Orientation:  OrientationPortrait,
		MarginTop:    15,
		MarginRight:  15,
		MarginBottom: 15,
		MarginLeft:   15,
	}
}

// DefaultTypographySettings returns the built-in typography
func DefaultTypographySettings() TypographySettings {
	return TypographySettings{
		FontFamily:         "Helvetica",
		HeadFontSize:       14,
		NormalFontSize:     10,
		SmallFontSize:      8,
		TableFontSize:      9,
		TitleFontSize:      16,
		HeadingFontSize:    11,
		TextColor:          "#000000",
		HeadingColor:       "#1F3864",
		TitleColor:         "#1F3864",
		LineSpacing:        1.2,
		HeadingLineSpacing: 1.3,
		DateFormat:         DefaultDateFormat,
		Title:              DefaultTitle,
		LogoWidth:          35,
	}
}

// DefaultTableSettings returns the built-in table styling
func DefaultTableSettings() TableSettings {
	return TableSettings{
		ColumnWidths:      DefaultColumnWidths,
		HeaderBackground:  "#D9E2F3",
		HeaderTextColor:   "#000000",
		BorderColor:       "#808080",
		GridColor:         "#BFBFBF",
		BorderThickness:   0.3,
		CellPadding:       1.5,
		AlternateRows:     true,
		AlternateRowColor: "#F2F2F2",
		HeaderFontStyle:   FontStyleBold,
		ContentAlign:      AlignLeft,
	}
}

// DefaultSignatureSettings returns the built-in signature block
func DefaultSignatureSettings() SignatureSettings {
	return SignatureSettings{
		ShowLines:      true,
		ImageWidth:     40,
		ImageHeight:    20,
		LineLength:     30,
		LineThickness:  0.3,
		FontSize:       9,
		Spacing:        10,
		DisclaimerText: "Dokuments ir parakstīts ar drošu elektronisko parakstu un satur laika zīmogu.",
	}
}

// DefaultQRCodeSettings returns a disabled QR block at the given corner
func DefaultQRCodeSettings(pos QRPosition) QRCodeSettings {
	return QRCodeSettings{
		Size:     25,
		Position: pos,
		Color:    "#000000",
	}
}

// DefaultWatermarkSettings returns a disabled watermark
func DefaultWatermarkSettings() WatermarkSettings {
	return WatermarkSettings{
		Text:     "MELNRAKSTS",
		FontSize: 60,
		Color:    "#C8C8C8",
		Rotation: 45,
		Opacity:  0.3,
	}
}

// DefaultSecuritySettings returns no encryption with every permission granted
func DefaultSecuritySettings() SecuritySettings {
	return SecuritySettings{
		AllowPrint:    true,
		AllowModify:   true,
		AllowCopy:     true,
		AllowAnnotate: true,
	}
}

// DefaultDefaultsSettings returns the Latvian seed values
func DefaultDefaultsSettings() DefaultsSettings {
	return DefaultsSettings{
		Country:  "Latvija",
		City:     "Rīga",
		Unit:     "gab.",
		Currency: valueobject.DefaultCurrency,
		VATRate:  defaultVATRate(),
	}
}
