// Package codec converts acts to and from their persisted JSON record.
//
// The record is flat: business fields use Latvian keys (akta_nr, pieņēmējs,
// pozīcijas, pvn_likme and so on) and presentation settings use snake-case
// English keys. Decimal values are written as JSON strings so no precision
// is lost.
package codec

// SchemaVersion is the version written by Encode. Records without the key
// are version 0 and load identically.
const SchemaVersion = 1

// Record is the persisted shape of an act
type Record struct {
	SchemaVersion int `json:"schema_version"`

	Number         string `json:"akta_nr"`
	Date           string `json:"datums"`
	Place          string `json:"vieta"`
	OrderNumber    string `json:"pasūtījuma_nr"`
	ContractNumber string `json:"līguma_nr"`
	ContractDate   string `json:"līguma_datums"`
	WorkStartDate  string `json:"darbu_sākums"`
	WorkEndDate    string `json:"darbu_beigas"`

	Acceptor   PartyRecord `json:"pieņēmējs"`
	Transferor PartyRecord `json:"nodevējs"`

	Items       []ItemRecord       `json:"pozīcijas" validate:"dive"`
	Attachments []AttachmentRecord `json:"attēli" validate:"dive"`

	Notes               string  `json:"piezīmes"`
	DisputeResolution   string  `json:"strīdu_risināšana"`
	Confidentiality     bool    `json:"konfidencialitāte"`
	PenaltyRate         Decimal `json:"soda_procenti"`
	DeliveryTerms       string  `json:"piegādes_nosacījumi"`
	Insurance           bool    `json:"apdrošināšana"`
	AdditionalTerms     string  `json:"papildu_nosacījumi"`
	ReferencedDocuments string  `json:"atsauces_dokumenti"`

	Status           string  `json:"statuss" validate:"omitempty,oneof=Draft Approved Signed Archived Cancelled"`
	Currency         string  `json:"valūta" validate:"omitempty,iso4217"`
	VATRate          Decimal `json:"pvn_likme"`
	IncludeVAT       bool    `json:"iekļaut_pvn"`
	ShowVATBreakdown bool    `json:"rādīt_pvn_sadalījumu"`

	PageSize     string  `json:"page_size" validate:"omitempty,oneof=A4 A5 Letter Legal"`
	Orientation  string  `json:"page_orientation" validate:"omitempty,oneof=portrait landscape"`
	MarginTop    float64 `json:"margin_top" validate:"gte=0"`
	MarginRight  float64 `json:"margin_right" validate:"gte=0"`
	MarginBottom float64 `json:"margin_bottom" validate:"gte=0"`
	MarginLeft   float64 `json:"margin_left" validate:"gte=0"`

	FontPath           string  `json:"font_path"`
	FontFamily         string  `json:"font_family"`
	HeadFontSize       float64 `json:"head_font_size"`
	NormalFontSize     float64 `json:"normal_font_size"`
	SmallFontSize      float64 `json:"small_font_size"`
	TableFontSize      float64 `json:"table_font_size"`
	TitleFontSize      float64 `json:"title_font_size"`
	HeadingFontSize    float64 `json:"heading_font_size"`
	TextColor          string  `json:"text_color" validate:"omitempty,hexcolor"`
	HeadingColor       string  `json:"heading_color" validate:"omitempty,hexcolor"`
	TitleColor         string  `json:"title_color" validate:"omitempty,hexcolor"`
	LineSpacing        float64 `json:"line_spacing"`
	HeadingLineSpacing float64 `json:"heading_line_spacing"`
	DateFormat         string  `json:"date_format"`
	DocumentTitle      string  `json:"document_title"`
	LogoPath           string  `json:"logo_path"`
	LogoWidth          float64 `json:"logo_width"`
	FooterText         string  `json:"footer_text"`

	ColumnWidths       string  `json:"table_column_widths"`
	HeaderBackground   string  `json:"table_header_background" validate:"omitempty,hexcolor"`
	HeaderTextColor    string  `json:"table_header_text_color" validate:"omitempty,hexcolor"`
	BorderColor        string  `json:"table_border_color" validate:"omitempty,hexcolor"`
	GridColor          string  `json:"table_grid_color" validate:"omitempty,hexcolor"`
	BorderThickness    float64 `json:"table_border_thickness"`
	CellPadding        float64 `json:"table_cell_padding"`
	AlternateRows      bool    `json:"table_alternate_rows"`
	AlternateRowColor  string  `json:"table_alternate_row_color" validate:"omitempty,hexcolor"`
	HeaderFontStyle    string  `json:"table_header_font_style"`
	ContentAlign       string  `json:"table_content_align" validate:"omitempty,oneof=left center right"`
	ShowSerialColumn   bool    `json:"table_show_serial"`
	ShowWarrantyColumn bool    `json:"table_show_warranty"`
	ShowNotesColumn    bool    `json:"table_show_notes"`

	SignatureShowLines       bool    `json:"signature_show_lines"`
	AcceptorSignatureImage   string  `json:"signature_acceptor_image"`
	TransferorSignatureImage string  `json:"signature_transferor_image"`
	SignatureImageWidth      float64 `json:"signature_image_width"`
	SignatureImageHeight     float64 `json:"signature_image_height"`
	SignatureLineLength      int     `json:"signature_line_length"`
	SignatureLineThickness   float64 `json:"signature_line_thickness"`
	SignatureFontSize        float64 `json:"signature_font_size"`
	SignatureSpacing         float64 `json:"signature_spacing"`
	ElectronicSignature      bool    `json:"electronic_signature"`
	ShowElectronicDisclaimer bool    `json:"electronic_signature_disclaimer"`
	ElectronicDisclaimerText string  `json:"electronic_signature_text"`

	CoverEnabled  bool   `json:"cover_page_enabled"`
	CoverTitle    string `json:"cover_page_title"`
	CoverSubtitle string `json:"cover_page_subtitle"`
	CoverShowLogo bool   `json:"cover_page_show_logo"`

	AutoQR   QRRecord `json:"auto_qr"`
	CustomQR QRRecord `json:"custom_qr"`

	WatermarkEnabled  bool    `json:"watermark_enabled"`
	WatermarkText     string  `json:"watermark_text"`
	WatermarkFontSize float64 `json:"watermark_font_size"`
	WatermarkColor    string  `json:"watermark_color" validate:"omitempty,hexcolor"`
	WatermarkRotation float64 `json:"watermark_rotation"`
	WatermarkOpacity  float64 `json:"watermark_opacity" validate:"gte=0,lte=1"`

	EncryptPDF    bool   `json:"pdf_encrypt"`
	UserPassword  string `json:"pdf_user_password"`
	OwnerPassword string `json:"pdf_owner_password"`
	AllowPrint    bool   `json:"pdf_allow_print"`
	AllowModify   bool   `json:"pdf_allow_modify"`
	AllowCopy     bool   `json:"pdf_allow_copy"`
	AllowAnnotate bool   `json:"pdf_allow_annotate"`

	ShowPageNumbers bool `json:"show_page_numbers"`
	ShowGeneratedAt bool `json:"show_generated_at"`

	DefaultCountry  string  `json:"default_country"`
	DefaultCity     string  `json:"default_city"`
	DefaultUnit     string  `json:"default_unit"`
	DefaultCurrency string  `json:"default_currency"`
	DefaultVATRate  Decimal `json:"default_vat_rate"`

	// Template fields are only present in template files
	TemplateName     string `json:"template_name,omitempty"`
	TemplatePassword string `json:"template_password,omitempty"`
}

// PartyRecord is the persisted shape of a party
type PartyRecord struct {
	Name               string `json:"nosaukums"`
	RegistrationNumber string `json:"reģistrācijas_nr"`
	Address            string `json:"adrese"`
	ContactName        string `json:"kontaktpersona"`
	Phone              string `json:"tālrunis"`
	Email              string `json:"e_pasts" validate:"omitempty,email"`
	BankAccount        string `json:"bankas_konts"`
	LegalStatus        string `json:"juridiskais_statuss"`
}

// ItemRecord is the persisted shape of a line item. The amount is derived
// and never stored.
type ItemRecord struct {
	Description  string  `json:"apraksts"`
	Quantity     Decimal `json:"daudzums"`
	Unit         string  `json:"vienība"`
	UnitPrice    Decimal `json:"cena"`
	SerialNumber string  `json:"sērijas_nr"`
	Warranty     string  `json:"garantija"`
	Notes        string  `json:"piezīmes"`
	ImagePath    string  `json:"attēls"`
}

// AttachmentRecord is the persisted shape of an attachment
type AttachmentRecord struct {
	Path    string `json:"path"`
	Caption string `json:"caption"`
}

// QRRecord is the persisted shape of a QR block
type QRRecord struct {
	Enabled  bool    `json:"enabled"`
	Data     string  `json:"data"`
	Size     float64 `json:"size"`
	Position string  `json:"position" validate:"omitempty,oneof=top-left top-right bottom-left bottom-right center"`
	OffsetX  float64 `json:"offset_x"`
	OffsetY  float64 `json:"offset_y"`
	Color    string  `json:"color" validate:"omitempty,hexcolor"`
}
