package act

import (
	"fmt"
	"strings"
	"time"

	"github.com/actdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Field is a labelled value such as "Datums: 15.01.2025"
type Field struct {
	Label string
	Value string
}

// String joins label and value
func (f Field) String() string {
	if f.Label == "" {
		return f.Value
	}
	return f.Label + ": " + f.Value
}

// CoverBlock is the content of the optional cover page
type CoverBlock struct {
	Title    string
	Subtitle string
	Lines    []Field
	LogoPath string
}

// PartyBlock is one half of the two-column party table
type PartyBlock struct {
	Heading        string
	Name           string
	Lines          []Field
	Signatory      string
	SignatureImage string
}

// ColumnHeader describes one table column as printed
type ColumnHeader struct {
	Column  Column
	Label   string
	Numeric bool
}

// Row is one line-item row with cells in column order
type Row struct {
	Cells []string
}

// SummaryLine is one line of the totals block
type SummaryLine struct {
	Label  string
	Value  string
	Strong bool
}

// Clause is one optional legal paragraph. Text may carry inline markup.
type Clause struct {
	Heading string
	Text    string
}

// SignatureBlock describes how the act is signed
type SignatureBlock struct {
	Mode       SignatureMode
	Disclaimer string
	Label      string
}

// QRBlock is one QR code to print
type QRBlock struct {
	Kind     string
	Data     string
	Size     float64
	Position QRPosition
	OffsetX  float64
	OffsetY  float64
	Color    string
}

// WatermarkBlock is the diagonal text drawn on every page
type WatermarkBlock struct {
	Text     string
	FontSize float64
	Color    string
	Rotation float64
	Opacity  float64
}

// Protection carries the encryption request for the PDF post-processor
type Protection struct {
	UserPassword  string
	OwnerPassword string
	Permissions   int
}

// Composition is the act with every inclusion decision already taken and
// every value already formatted. Renderers only lay it out.
type Composition struct {
	Title    string
	Status   Status
	Currency string
	Cover    *CoverBlock
	LogoPath string

	Meta          []Field
	ContractLines []Field

	Acceptor   PartyBlock
	Transferor PartyBlock

	Columns []ColumnHeader
	Rows    []Row

	Totals          Totals
	Summary         []SummaryLine
	IncludeVATLines bool

	Clauses            []Clause
	AttachmentsHeading string
	Attachments        []Attachment

	Signature  SignatureBlock
	QRCodes    []QRBlock
	Watermark  *WatermarkBlock
	Protection *Protection

	GeneratedAt     string
	FooterText      string
	ShowPageNumbers bool
	PageFormat      string
}

// PageLabel renders the page-numbering text for page n of total.
// An unknown total (first layout pass) prints n in its place.
func (c *Composition) PageLabel(n, total int) string {
	if total < n {
		total = n
	}
	return fmt.Sprintf(c.PageFormat, n, total)
}

// ComposeOptions tune composition. A zero Now means the wall clock.
type ComposeOptions struct {
	Now              time.Time
	Labels           *Labels
	DecimalSeparator string
}

// Compose takes every business decision about what the document shows.
func Compose(a *Act, opts ComposeOptions) *Composition {
	labels := DefaultLabels()
	if opts.Labels != nil {
		labels = *opts.Labels
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	sep := opts.DecimalSeparator
	if sep == "" {
		sep = "."
	}
	currency := valueobject.NormalizeCurrency(string(a.Currency))
	money := func(m valueobject.Money) string {
		return m.Format(sep, "") + " " + m.Currency().String()
	}
	dateFormat := a.Typography.DateFormat
	date := FormatDate(a.Date, dateFormat)
	totals := a.Totals()

	c := &Composition{
		Title:           nonEmpty(a.Typography.Title, DefaultTitle),
		Status:          a.Status,
		Currency:        currency.String(),
		LogoPath:        strings.TrimSpace(a.Typography.LogoPath),
		Totals:          totals,
		FooterText:      strings.TrimSpace(a.Typography.FooterText),
		ShowPageNumbers: a.Output.ShowPageNumbers,
		PageFormat:      labels.PageFormat,
	}

	c.Meta = nonEmptyFields(
		Field{labels.ActNumber, strings.TrimSpace(a.Number)},
		Field{labels.Date, date},
		Field{labels.Place, strings.TrimSpace(a.Place)},
		Field{labels.OrderNumber, strings.TrimSpace(a.OrderNumber)},
	)
	c.ContractLines = nonEmptyFields(
		Field{labels.ContractNumber, strings.TrimSpace(a.ContractNumber)},
		Field{labels.ContractDate, FormatDate(a.ContractDate, dateFormat)},
		Field{labels.WorkStart, FormatDate(a.WorkStartDate, dateFormat)},
		Field{labels.WorkEnd, FormatDate(a.WorkEndDate, dateFormat)},
	)

	if a.Cover.Enabled {
		cover := &CoverBlock{
			Title:    nonEmpty(a.Cover.Title, c.Title),
			Subtitle: strings.TrimSpace(a.Cover.Subtitle),
			Lines: nonEmptyFields(
				Field{labels.ActNumber, strings.TrimSpace(a.Number)},
				Field{labels.Date, date},
			),
		}
		if a.Cover.ShowLogo {
			cover.LogoPath = c.LogoPath
		}
		c.Cover = cover
	}

	c.Acceptor = composeParty(labels.Acceptor, a.Acceptor, a.Signature.AcceptorImagePath, labels)
	c.Transferor = composeParty(labels.Transferor, a.Transferor, a.Signature.TransferorImagePath, labels)

	for _, col := range a.Table.EnabledColumns() {
		c.Columns = append(c.Columns, ColumnHeader{
			Column:  col,
			Label:   labels.Columns[col],
			Numeric: col == ColumnQuantity || col == ColumnPrice || col == ColumnAmount,
		})
	}
	for i, item := range a.Items {
		cells := make([]string, 0, len(c.Columns))
		for _, col := range c.Columns {
			cells = append(cells, itemCell(i, item, col.Column, sep))
		}
		c.Rows = append(c.Rows, Row{Cells: cells})
	}

	c.Summary = []SummaryLine{{Label: labels.Subtotal, Value: money(totals.Subtotal), Strong: !totals.IncludeVAT}}
	c.IncludeVATLines = a.VAT.Include && a.VAT.ShowBreakdown
	if c.IncludeVATLines {
		rate := valueobject.FormatQuantity(a.VAT.Rate, sep)
		c.Summary = append(c.Summary,
			SummaryLine{Label: fmt.Sprintf(labels.VATFormat, rate), Value: money(totals.VAT)},
			SummaryLine{Label: labels.GrandTotal, Value: money(totals.Grand), Strong: true},
		)
	}

	c.Clauses = composeClauses(a.Legal, labels, sep)
	c.AttachmentsHeading = labels.AttachmentsHeading

	for _, att := range a.Attachments {
		if strings.TrimSpace(att.Path) == "" {
			continue
		}
		c.Attachments = append(c.Attachments, Attachment{Path: att.Path, Caption: strings.TrimSpace(att.Caption)})
	}

	c.Signature = SignatureBlock{Mode: SignatureNone, Label: labels.Signature}
	switch {
	case a.Signature.Electronic:
		c.Signature.Mode = SignatureElectronic
		if a.Signature.ShowElectronicDisclaimer {
			c.Signature.Disclaimer = strings.TrimSpace(a.Signature.DisclaimerText)
		}
	case a.Signature.ShowLines:
		c.Signature.Mode = SignatureLines
	}

	if a.AutoQR.Enabled {
		data := fmt.Sprintf(labels.AutoQRFormat, strings.TrimSpace(a.Number), date,
			totals.Grand.Format(".", ""), currency)
		c.QRCodes = append(c.QRCodes, qrBlock("auto", data, a.AutoQR))
	}
	if a.CustomQR.Enabled && strings.TrimSpace(a.CustomQR.Data) != "" {
		c.QRCodes = append(c.QRCodes, qrBlock("custom", a.CustomQR.Data, a.CustomQR))
	}

	if a.Watermark.Enabled && strings.TrimSpace(a.Watermark.Text) != "" {
		c.Watermark = &WatermarkBlock{
			Text:     strings.TrimSpace(a.Watermark.Text),
			FontSize: a.Watermark.FontSize,
			Color:    a.Watermark.Color,
			Rotation: a.Watermark.Rotation,
			Opacity:  a.Watermark.Opacity,
		}
	}

	if a.Security.Encrypt {
		c.Protection = &Protection{
			UserPassword:  a.Security.UserPassword,
			OwnerPassword: a.Security.OwnerPassword,
			Permissions:   a.Security.PermissionMask(),
		}
	}

	if stamp := GeneratedStamp(a, now); stamp != "" {
		c.GeneratedAt = fmt.Sprintf(labels.GeneratedAtFormat, stamp)
	}

	return c
}

// GeneratedStamp formats now the way the generation line shows it, or
// returns "" when the act does not show that line
func GeneratedStamp(a *Act, now time.Time) string {
	if !a.Output.ShowGeneratedAt {
		return ""
	}
	pattern := nonEmpty(a.Typography.DateFormat, DefaultDateFormat)
	return now.Format(datePatternReplacer.Replace(pattern) + " 15:04")
}

func composeParty(heading string, p Party, signatureImage string, labels Labels) PartyBlock {
	return PartyBlock{
		Heading: heading,
		Name:    strings.TrimSpace(p.Name),
		Lines: nonEmptyFields(
			Field{labels.RegistrationNumber, strings.TrimSpace(p.RegistrationNumber)},
			Field{labels.Address, strings.TrimSpace(p.Address)},
			Field{labels.ContactName, strings.TrimSpace(p.ContactName)},
			Field{labels.Phone, strings.TrimSpace(p.Phone)},
			Field{labels.Email, strings.TrimSpace(p.Email)},
			Field{labels.BankAccount, strings.TrimSpace(p.BankAccount)},
			Field{labels.LegalStatus, p.LegalStatus.DisplayName()},
		),
		Signatory:      p.SignatoryName(),
		SignatureImage: strings.TrimSpace(signatureImage),
	}
}

func composeClauses(legal LegalTerms, labels Labels, sep string) []Clause {
	var clauses []Clause
	add := func(heading, text string) {
		if text = strings.TrimSpace(text); text != "" {
			clauses = append(clauses, Clause{Heading: heading, Text: text})
		}
	}
	add(labels.NotesHeading, legal.Notes)
	add(labels.DisputeResolutionHeading, legal.DisputeResolution)
	if legal.Confidentiality {
		add(labels.ConfidentialityHeading, labels.ConfidentialityText)
	}
	if !legal.PenaltyRate.IsZero() {
		add(labels.PenaltyHeading, fmt.Sprintf(labels.PenaltyFormat, valueobject.FormatQuantity(legal.PenaltyRate, sep)))
	}
	add(labels.DeliveryTermsHeading, legal.DeliveryTerms)
	if legal.Insurance {
		add(labels.InsuranceHeading, labels.InsuranceText)
	}
	add(labels.AdditionalTermsHeading, legal.AdditionalTerms)
	add(labels.ReferencedDocumentsHeading, legal.ReferencedDocuments)
	return clauses
}

func itemCell(index int, item LineItem, col Column, sep string) string {
	switch col {
	case ColumnNumber:
		return fmt.Sprintf("%d", index+1)
	case ColumnDescription:
		return item.Description
	case ColumnSerial:
		return item.SerialNumber
	case ColumnQuantity:
		return valueobject.FormatQuantity(item.Quantity, sep)
	case ColumnUnit:
		return item.Unit
	case ColumnPrice:
		return formatPrice(item.UnitPrice, sep)
	case ColumnAmount:
		return valueobject.FormatDecimal(item.Amount(), valueobject.MoneyPlaces, sep, "")
	case ColumnWarranty:
		return item.Warranty
	case ColumnNotes:
		return item.Notes
	}
	return ""
}

// formatPrice shows at least two places and keeps any finer precision typed in
func formatPrice(d decimal.Decimal, sep string) string {
	places := valueobject.MoneyPlaces
	if exp := -d.Exponent(); exp > places {
		places = exp
	}
	return valueobject.FormatDecimal(d, places, sep, "")
}

func qrBlock(kind, data string, s QRCodeSettings) QRBlock {
	return QRBlock{
		Kind:     kind,
		Data:     data,
		Size:     s.Size,
		Position: s.Position,
		OffsetX:  s.OffsetX,
		OffsetY:  s.OffsetY,
		Color:    s.Color,
	}
}

func nonEmptyFields(fields ...Field) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

func nonEmpty(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
