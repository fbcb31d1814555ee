package act

// Labels holds the fixed document wording. DefaultLabels is Latvian.
type Labels struct {
	Acceptor   string
	Transferor string

	ActNumber   string
	Date        string
	Place       string
	OrderNumber string

	ContractNumber string
	ContractDate   string
	WorkStart      string
	WorkEnd        string

	RegistrationNumber string
	Address            string
	ContactName        string
	Phone              string
	Email              string
	BankAccount        string
	LegalStatus        string

	Columns map[Column]string

	Subtotal   string
	VATFormat  string
	GrandTotal string

	NotesHeading               string
	DisputeResolutionHeading   string
	ConfidentialityHeading     string
	ConfidentialityText        string
	PenaltyHeading             string
	PenaltyFormat              string
	DeliveryTermsHeading       string
	InsuranceHeading           string
	InsuranceText              string
	AdditionalTermsHeading     string
	ReferencedDocumentsHeading string

	AttachmentsHeading string
	Signature          string
	GeneratedAtFormat  string
	PageFormat         string
	AutoQRFormat       string
}

// DefaultLabels returns the Latvian wording
func DefaultLabels() Labels {
	return Labels{
		Acceptor:   "Pieņēmējs",
		Transferor: "Nodevējs",

		ActNumber:   "Akta Nr.",
		Date:        "Datums",
		Place:       "Vieta",
		OrderNumber: "Pasūtījuma Nr.",

		ContractNumber: "Līguma Nr.",
		ContractDate:   "Līguma datums",
		WorkStart:      "Darbu sākums",
		WorkEnd:        "Darbu beigas",

		RegistrationNumber: "Reģ. Nr.",
		Address:            "Adrese",
		ContactName:        "Kontaktpersona",
		Phone:              "Tālrunis",
		Email:              "E-pasts",
		BankAccount:        "Bankas konts",
		LegalStatus:        "Statuss",

		Columns: map[Column]string{
			ColumnNumber:      "Nr.",
			ColumnDescription: "Apraksts",
			ColumnSerial:      "Sērijas Nr.",
			ColumnQuantity:    "Daudz.",
			ColumnUnit:        "Mērv.",
			ColumnPrice:       "Cena",
			ColumnAmount:      "Summa",
			ColumnWarranty:    "Garantija",
			ColumnNotes:       "Piezīmes",
		},

		Subtotal:   "Kopā",
		VATFormat:  "PVN %s%%",
		GrandTotal: "Kopā apmaksai",

		NotesHeading:               "Piezīmes",
		DisputeResolutionHeading:   "Strīdu risināšana",
		ConfidentialityHeading:     "Konfidencialitāte",
		ConfidentialityText:        "Puses apņemas neizpaust trešajām personām informāciju, kas iegūta šī akta izpildes gaitā.",
		PenaltyHeading:             "Līgumsods",
		PenaltyFormat:              "Par saistību izpildes nokavējumu tiek piemērots līgumsods %s%% apmērā no kopējās summas par katru nokavēto dienu.",
		DeliveryTermsHeading:       "Piegādes noteikumi",
		InsuranceHeading:           "Apdrošināšana",
		InsuranceText:              "Nododamās vērtības ir apdrošinātas līdz to pieņemšanas brīdim.",
		AdditionalTermsHeading:     "Papildu noteikumi",
		ReferencedDocumentsHeading: "Saistītie dokumenti",

		AttachmentsHeading: "Pielikumi",
		Signature:          "Paraksts",
		GeneratedAtFormat:  "Ģenerēts: %s",
		PageFormat:         "Lapa %d no %d",
		AutoQRFormat:       "Akts %s; Datums %s; Summa %s %s",
	}
}
