package act

import "strings"

// Status represents the lifecycle state of an act
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusApproved  Status = "Approved"
	StatusSigned    Status = "Signed"
	StatusArchived  Status = "Archived"
	StatusCancelled Status = "Cancelled"
)

// IsValid returns true if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusSigned, StatusArchived, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// DisplayName returns the Latvian label used on documents
func (s Status) DisplayName() string {
	switch s {
	case StatusDraft:
		return "Melnraksts"
	case StatusApproved:
		return "Apstiprināts"
	case StatusSigned:
		return "Parakstīts"
	case StatusArchived:
		return "Arhivēts"
	case StatusCancelled:
		return "Atcelts"
	default:
		return string(s)
	}
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
// Draft -> Approved -> Signed -> Archived, and anything not yet archived may be cancelled.
func (s Status) CanTransitionTo(target Status) bool {
	switch target {
	case StatusCancelled:
		return s != StatusArchived && s != StatusCancelled
	case StatusApproved:
		return s == StatusDraft
	case StatusSigned:
		return s == StatusApproved
	case StatusArchived:
		return s == StatusSigned
	case StatusDraft:
		return s == StatusApproved
	}
	return false
}

// AllStatuses returns all valid statuses
func AllStatuses() []Status {
	return []Status{StatusDraft, StatusApproved, StatusSigned, StatusArchived, StatusCancelled}
}

// ParseStatus maps free text to a Status, defaulting to Draft
func ParseStatus(s string) Status {
	for _, st := range AllStatuses() {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st
		}
	}
	return StatusDraft
}

// LegalStatus tags a party. Unknown values are kept verbatim.
type LegalStatus string

const (
	LegalStatusNone         LegalStatus = ""
	LegalStatusLegalEntity  LegalStatus = "legal entity"
	LegalStatusNatural      LegalStatus = "natural person"
	LegalStatusSelfEmployed LegalStatus = "self-employed"
)

// DisplayName returns the Latvian label for known values
func (l LegalStatus) DisplayName() string {
	switch l {
	case LegalStatusLegalEntity:
		return "Juridiska persona"
	case LegalStatusNatural:
		return "Fiziska persona"
	case LegalStatusSelfEmployed:
		return "Pašnodarbinātais"
	default:
		return string(l)
	}
}

// PageSize represents supported paper sizes
type PageSize string

const (
	PageSizeA4     PageSize = "A4"
	PageSizeA5     PageSize = "A5"
	PageSizeLetter PageSize = "Letter"
	PageSizeLegal  PageSize = "Legal"
)

// IsValid returns true if the page size is valid
func (p PageSize) IsValid() bool {
	switch p {
	case PageSizeA4, PageSizeA5, PageSizeLetter, PageSizeLegal:
		return true
	}
	return false
}

// Dimensions returns the portrait dimensions in millimeters (width, height)
func (p PageSize) Dimensions() (width, height float64) {
	switch p {
	case PageSizeA5:
		return 148, 210
	case PageSizeLetter:
		return 215.9, 279.4
	case PageSizeLegal:
		return 215.9, 355.6
	default:
		return 210, 297
	}
}

// Orientation represents page orientation
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// IsValid returns true if the orientation is valid
func (o Orientation) IsValid() bool {
	return o == OrientationPortrait || o == OrientationLandscape
}

// Alignment is a horizontal text alignment
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// IsValid returns true if the alignment is valid
func (a Alignment) IsValid() bool {
	return a == AlignLeft || a == AlignCenter || a == AlignRight
}

// QRPosition is the requested corner of a QR block. Renderers treat it as a hint.
type QRPosition string

const (
	QRTopLeft     QRPosition = "top-left"
	QRTopRight    QRPosition = "top-right"
	QRBottomLeft  QRPosition = "bottom-left"
	QRBottomRight QRPosition = "bottom-right"
	QRCenter      QRPosition = "center"
)

// IsValid returns true if the position is valid
func (q QRPosition) IsValid() bool {
	switch q {
	case QRTopLeft, QRTopRight, QRBottomLeft, QRBottomRight, QRCenter:
		return true
	}
	return false
}

// Horizontal returns the horizontal component of the position
func (q QRPosition) Horizontal() Alignment {
	switch q {
	case QRTopLeft, QRBottomLeft:
		return AlignLeft
	case QRCenter:
		return AlignCenter
	default:
		return AlignRight
	}
}

// FontStyle is a combination of B (bold) and I (italic)
type FontStyle string

const (
	FontStyleRegular    FontStyle = ""
	FontStyleBold       FontStyle = "B"
	FontStyleItalic     FontStyle = "I"
	FontStyleBoldItalic FontStyle = "BI"
)

// IsBold reports whether the style includes bold
func (f FontStyle) IsBold() bool {
	return strings.Contains(strings.ToUpper(string(f)), "B")
}

// IsItalic reports whether the style includes italic
func (f FontStyle) IsItalic() bool {
	return strings.Contains(strings.ToUpper(string(f)), "I")
}

// Column identifies a line-item table column
type Column string

const (
	ColumnNumber      Column = "number"
	ColumnDescription Column = "description"
	ColumnSerial      Column = "serial"
	ColumnQuantity    Column = "quantity"
	ColumnUnit        Column = "unit"
	ColumnPrice       Column = "price"
	ColumnAmount      Column = "amount"
	ColumnWarranty    Column = "warranty"
	ColumnNotes       Column = "notes"
)

// SignatureMode describes how the signature block is rendered
type SignatureMode string

const (
	SignatureNone       SignatureMode = "none"
	SignatureElectronic SignatureMode = "electronic"
	SignatureLines      SignatureMode = "lines"
)
