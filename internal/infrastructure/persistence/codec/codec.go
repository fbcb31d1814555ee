package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/domain/shared/valueobject"
)

// DefaultRecord is the record of a fresh act. Decode starts from it so
// keys missing from a file keep their defaults.
func DefaultRecord() *Record {
	return ToRecord(act.New())
}

// Decode parses a record. Malformed JSON is reported as shared.ErrCorruptFile.
func Decode(data []byte) (*Record, error) {
	rec := DefaultRecord()
	rec.SchemaVersion = 0
	if err := json.Unmarshal(bytes.TrimSpace(data), rec); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCorruptFile, err)
	}
	return rec, nil
}

// Encode writes the record as indented JSON with the current schema version
func Encode(rec *Record) ([]byte, error) {
	out := *rec
	out.SchemaVersion = SchemaVersion
	if out.Items == nil {
		out.Items = []ItemRecord{}
	}
	if out.Attachments == nil {
		out.Attachments = []AttachmentRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("failed to encode act record: %w", err)
	}
	return buf.Bytes(), nil
}

// Marshal is ToRecord followed by Encode
func Marshal(a *act.Act) ([]byte, error) {
	return Encode(ToRecord(a))
}

// Unmarshal is Decode followed by FromRecord
func Unmarshal(data []byte) (*act.Act, error) {
	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return FromRecord(rec), nil
}

// ToRecord snapshots every field of a. It never scrubs.
func ToRecord(a *act.Act) *Record {
	rec := &Record{
		SchemaVersion: SchemaVersion,

		Number:         a.Number,
		Date:           a.Date,
		Place:          a.Place,
		OrderNumber:    a.OrderNumber,
		ContractNumber: a.ContractNumber,
		ContractDate:   a.ContractDate,
		WorkStartDate:  a.WorkStartDate,
		WorkEndDate:    a.WorkEndDate,

		Acceptor:   partyToRecord(a.Acceptor),
		Transferor: partyToRecord(a.Transferor),

		Items:       make([]ItemRecord, 0, len(a.Items)),
		Attachments: make([]AttachmentRecord, 0, len(a.Attachments)),

		Notes:               a.Legal.Notes,
		DisputeResolution:   a.Legal.DisputeResolution,
		Confidentiality:     a.Legal.Confidentiality,
		PenaltyRate:         NewDecimal(a.Legal.PenaltyRate),
		DeliveryTerms:       a.Legal.DeliveryTerms,
		Insurance:           a.Legal.Insurance,
		AdditionalTerms:     a.Legal.AdditionalTerms,
		ReferencedDocuments: a.Legal.ReferencedDocuments,

		Status:           string(a.Status),
		Currency:         string(a.Currency),
		VATRate:          NewDecimal(a.VAT.Rate),
		IncludeVAT:       a.VAT.Include,
		ShowVATBreakdown: a.VAT.ShowBreakdown,

		PageSize:     string(a.Page.Size),
		Orientation:  string(a.Page.Orientation),
		MarginTop:    a.Page.MarginTop,
		MarginRight:  a.Page.MarginRight,
		MarginBottom: a.Page.MarginBottom,
		MarginLeft:   a.Page.MarginLeft,

		FontPath:           a.Typography.FontPath,
		FontFamily:         a.Typography.FontFamily,
		HeadFontSize:       a.Typography.HeadFontSize,
		NormalFontSize:     a.Typography.NormalFontSize,
		SmallFontSize:      a.Typography.SmallFontSize,
		TableFontSize:      a.Typography.TableFontSize,
		TitleFontSize:      a.Typography.TitleFontSize,
		HeadingFontSize:    a.Typography.HeadingFontSize,
		TextColor:          a.Typography.TextColor,
		HeadingColor:       a.Typography.HeadingColor,
		TitleColor:         a.Typography.TitleColor,
		LineSpacing:        a.Typography.LineSpacing,
		HeadingLineSpacing: a.Typography.HeadingLineSpacing,
		DateFormat:         a.Typography.DateFormat,
		DocumentTitle:      a.Typography.Title,
		LogoPath:           a.Typography.LogoPath,
		LogoWidth:          a.Typography.LogoWidth,
		FooterText:         a.Typography.FooterText,

		ColumnWidths:       a.Table.ColumnWidths,
		HeaderBackground:   a.Table.HeaderBackground,
		HeaderTextColor:    a.Table.HeaderTextColor,
		BorderColor:        a.Table.BorderColor,
		GridColor:          a.Table.GridColor,
		BorderThickness:    a.Table.BorderThickness,
		CellPadding:        a.Table.CellPadding,
		AlternateRows:      a.Table.AlternateRows,
		AlternateRowColor:  a.Table.AlternateRowColor,
		HeaderFontStyle:    string(a.Table.HeaderFontStyle),
		ContentAlign:       string(a.Table.ContentAlign),
		ShowSerialColumn:   a.Table.ShowSerialColumn,
		ShowWarrantyColumn: a.Table.ShowWarrantyColumn,
		ShowNotesColumn:    a.Table.ShowNotesColumn,

		SignatureShowLines:       a.Signature.ShowLines,
		AcceptorSignatureImage:   a.Signature.AcceptorImagePath,
		TransferorSignatureImage: a.Signature.TransferorImagePath,
		SignatureImageWidth:      a.Signature.ImageWidth,
		SignatureImageHeight:     a.Signature.ImageHeight,
		SignatureLineLength:      a.Signature.LineLength,
		SignatureLineThickness:   a.Signature.LineThickness,
		SignatureFontSize:        a.Signature.FontSize,
		SignatureSpacing:         a.Signature.Spacing,
		ElectronicSignature:      a.Signature.Electronic,
		ShowElectronicDisclaimer: a.Signature.ShowElectronicDisclaimer,
		ElectronicDisclaimerText: a.Signature.DisclaimerText,

		CoverEnabled:  a.Cover.Enabled,
		CoverTitle:    a.Cover.Title,
		CoverSubtitle: a.Cover.Subtitle,
		CoverShowLogo: a.Cover.ShowLogo,

		AutoQR:   qrToRecord(a.AutoQR),
		CustomQR: qrToRecord(a.CustomQR),

		WatermarkEnabled:  a.Watermark.Enabled,
		WatermarkText:     a.Watermark.Text,
		WatermarkFontSize: a.Watermark.FontSize,
		WatermarkColor:    a.Watermark.Color,
		WatermarkRotation: a.Watermark.Rotation,
		WatermarkOpacity:  a.Watermark.Opacity,

		EncryptPDF:    a.Security.Encrypt,
		UserPassword:  a.Security.UserPassword,
		OwnerPassword: a.Security.OwnerPassword,
		AllowPrint:    a.Security.AllowPrint,
		AllowModify:   a.Security.AllowModify,
		AllowCopy:     a.Security.AllowCopy,
		AllowAnnotate: a.Security.AllowAnnotate,

		ShowPageNumbers: a.Output.ShowPageNumbers,
		ShowGeneratedAt: a.Output.ShowGeneratedAt,

		DefaultCountry:  a.Defaults.Country,
		DefaultCity:     a.Defaults.City,
		DefaultUnit:     a.Defaults.Unit,
		DefaultCurrency: string(a.Defaults.Currency),
		DefaultVATRate:  NewDecimal(a.Defaults.VATRate),
	}

	for _, item := range a.Items {
		rec.Items = append(rec.Items, ItemRecord{
			Description:  item.Description,
			Quantity:     NewDecimal(item.Quantity),
			Unit:         item.Unit,
			UnitPrice:    NewDecimal(item.UnitPrice),
			SerialNumber: item.SerialNumber,
			Warranty:     item.Warranty,
			Notes:        item.Notes,
			ImagePath:    item.ImagePath,
		})
	}
	for _, att := range a.Attachments {
		rec.Attachments = append(rec.Attachments, AttachmentRecord{Path: att.Path, Caption: att.Caption})
	}
	return rec
}

// FromRecord builds a new act from rec
func FromRecord(rec *Record) *act.Act {
	a := &act.Act{
		Number:         rec.Number,
		Date:           rec.Date,
		Place:          rec.Place,
		OrderNumber:    rec.OrderNumber,
		ContractNumber: rec.ContractNumber,
		ContractDate:   rec.ContractDate,
		WorkStartDate:  rec.WorkStartDate,
		WorkEndDate:    rec.WorkEndDate,

		Acceptor:   partyFromRecord(rec.Acceptor),
		Transferor: partyFromRecord(rec.Transferor),

		Items:       make([]act.LineItem, 0, len(rec.Items)),
		Attachments: make([]act.Attachment, 0, len(rec.Attachments)),

		Legal: act.LegalTerms{
			Notes:               rec.Notes,
			DisputeResolution:   rec.DisputeResolution,
			Confidentiality:     rec.Confidentiality,
			PenaltyRate:         rec.PenaltyRate.Decimal,
			DeliveryTerms:       rec.DeliveryTerms,
			Insurance:           rec.Insurance,
			AdditionalTerms:     rec.AdditionalTerms,
			ReferencedDocuments: rec.ReferencedDocuments,
		},
		Status:   act.ParseStatus(rec.Status),
		Currency: valueobject.Currency(rec.Currency),
		VAT: act.VATSettings{
			Rate:          rec.VATRate.Decimal,
			Include:       rec.IncludeVAT,
			ShowBreakdown: rec.ShowVATBreakdown,
		},
		Page: act.PageSettings{
			Size:         act.PageSize(rec.PageSize),
			Orientation:  act.Orientation(rec.Orientation),
			MarginTop:    rec.MarginTop,
			MarginRight:  rec.MarginRight,
			MarginBottom: rec.MarginBottom,
			MarginLeft:   rec.MarginLeft,
		},
		Typography: act.TypographySettings{
			FontPath:           rec.FontPath,
			FontFamily:         rec.FontFamily,
			HeadFontSize:       rec.HeadFontSize,
			NormalFontSize:     rec.NormalFontSize,
			SmallFontSize:      rec.SmallFontSize,
			TableFontSize:      rec.TableFontSize,
			TitleFontSize:      rec.TitleFontSize,
			HeadingFontSize:    rec.HeadingFontSize,
			TextColor:          rec.TextColor,
			HeadingColor:       rec.HeadingColor,
			TitleColor:         rec.TitleColor,
			LineSpacing:        rec.LineSpacing,
			HeadingLineSpacing: rec.HeadingLineSpacing,
			DateFormat:         rec.DateFormat,
			Title:              rec.DocumentTitle,
			LogoPath:           rec.LogoPath,
			LogoWidth:          rec.LogoWidth,
			FooterText:         rec.FooterText,
		},
		Table: act.TableSettings{
			ColumnWidths:       rec.ColumnWidths,
			HeaderBackground:   rec.HeaderBackground,
			HeaderTextColor:    rec.HeaderTextColor,
			BorderColor:        rec.BorderColor,
			GridColor:          rec.GridColor,
			BorderThickness:    rec.BorderThickness,
			CellPadding:        rec.CellPadding,
			AlternateRows:      rec.AlternateRows,
			AlternateRowColor:  rec.AlternateRowColor,
			HeaderFontStyle:    act.FontStyle(rec.HeaderFontStyle),
			ContentAlign:       act.Alignment(rec.ContentAlign),
			ShowSerialColumn:   rec.ShowSerialColumn,
			ShowWarrantyColumn: rec.ShowWarrantyColumn,
			ShowNotesColumn:    rec.ShowNotesColumn,
		},
		Signature: act.SignatureSettings{
			ShowLines:                rec.SignatureShowLines,
			AcceptorImagePath:        rec.AcceptorSignatureImage,
			TransferorImagePath:      rec.TransferorSignatureImage,
			ImageWidth:               rec.SignatureImageWidth,
			ImageHeight:              rec.SignatureImageHeight,
			LineLength:               rec.SignatureLineLength,
			LineThickness:            rec.SignatureLineThickness,
			FontSize:                 rec.SignatureFontSize,
			Spacing:                  rec.SignatureSpacing,
			Electronic:               rec.ElectronicSignature,
			ShowElectronicDisclaimer: rec.ShowElectronicDisclaimer,
			DisclaimerText:           rec.ElectronicDisclaimerText,
		},
		Cover: act.CoverPageSettings{
			Enabled:  rec.CoverEnabled,
			Title:    rec.CoverTitle,
			Subtitle: rec.CoverSubtitle,
			ShowLogo: rec.CoverShowLogo,
		},
		AutoQR:   qrFromRecord(rec.AutoQR),
		CustomQR: qrFromRecord(rec.CustomQR),
		Watermark: act.WatermarkSettings{
			Enabled:  rec.WatermarkEnabled,
			Text:     rec.WatermarkText,
			FontSize: rec.WatermarkFontSize,
			Color:    rec.WatermarkColor,
			Rotation: rec.WatermarkRotation,
			Opacity:  rec.WatermarkOpacity,
		},
		Security: act.SecuritySettings{
			Encrypt:       rec.EncryptPDF,
			UserPassword:  rec.UserPassword,
			OwnerPassword: rec.OwnerPassword,
			AllowPrint:    rec.AllowPrint,
			AllowModify:   rec.AllowModify,
			AllowCopy:     rec.AllowCopy,
			AllowAnnotate: rec.AllowAnnotate,
		},
		Output: act.OutputSettings{
			ShowPageNumbers: rec.ShowPageNumbers,
			ShowGeneratedAt: rec.ShowGeneratedAt,
		},
		Defaults: act.DefaultsSettings{
			Country:  rec.DefaultCountry,
			City:     rec.DefaultCity,
			Unit:     rec.DefaultUnit,
			Currency: valueobject.Currency(rec.DefaultCurrency),
			VATRate:  rec.DefaultVATRate.Decimal,
		},
	}

	for _, item := range rec.Items {
		a.Items = append(a.Items, act.LineItem{
			Description:  item.Description,
			Quantity:     item.Quantity.Decimal,
			Unit:         item.Unit,
			UnitPrice:    item.UnitPrice.Decimal,
			SerialNumber: item.SerialNumber,
			Warranty:     item.Warranty,
			Notes:        item.Notes,
			ImagePath:    item.ImagePath,
		})
	}
	for _, att := range rec.Attachments {
		a.Attachments = append(a.Attachments, act.Attachment{Path: att.Path, Caption: att.Caption})
	}
	return a
}

func partyToRecord(p act.Party) PartyRecord {
	return PartyRecord{
		Name:               p.Name,
		RegistrationNumber: p.RegistrationNumber,
		Address:            p.Address,
		ContactName:        p.ContactName,
		Phone:              p.Phone,
		Email:              p.Email,
		BankAccount:        p.BankAccount,
		LegalStatus:        string(p.LegalStatus),
	}
}

func partyFromRecord(r PartyRecord) act.Party {
	return act.Party{
		Name:               r.Name,
		RegistrationNumber: r.RegistrationNumber,
		Address:            r.Address,
		ContactName:        r.ContactName,
		Phone:              r.Phone,
		Email:              r.Email,
		BankAccount:        r.BankAccount,
		LegalStatus:        act.LegalStatus(r.LegalStatus),
	}
}

func qrToRecord(q act.QRCodeSettings) QRRecord {
	return QRRecord{
		Enabled:  q.Enabled,
		Data:     q.Data,
		Size:     q.Size,
		Position: string(q.Position),
		OffsetX:  q.OffsetX,
		OffsetY:  q.OffsetY,
		Color:    q.Color,
	}
}

func qrFromRecord(r QRRecord) act.QRCodeSettings {
	return act.QRCodeSettings{
		Enabled:  r.Enabled,
		Data:     r.Data,
		Size:     r.Size,
		Position: act.QRPosition(r.Position),
		OffsetX:  r.OffsetX,
		OffsetY:  r.OffsetY,
		Color:    r.Color,
	}
}
