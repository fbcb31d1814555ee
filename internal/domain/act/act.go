package act

import (
	"slices"

	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Act is the aggregate root: one acceptance-transfer act with its parties,
// items, attachments, legal clauses and presentation settings.
// Renderers receive it read-only.
type Act struct {
	Number         string
	Date           string
	Place          string
	OrderNumber    string
	ContractNumber string
	ContractDate   string
	WorkStartDate  string
	WorkEndDate    string

	Acceptor   Party
	Transferor Party

	Items       []LineItem
	Attachments []Attachment

	Legal    LegalTerms
	Status   Status
	Currency valueobject.Currency
	VAT      VATSettings

	Page       PageSettings
	Typography TypographySettings
	Table      TableSettings
	Signature  SignatureSettings
	Cover      CoverPageSettings
	AutoQR     QRCodeSettings
	CustomQR   QRCodeSettings
	Watermark  WatermarkSettings
	Security   SecuritySettings
	Output     OutputSettings
	Defaults   DefaultsSettings
}

// New creates a fresh act with every default applied
func New() *Act {
	defaults := DefaultDefaultsSettings()
	return &Act{
		Place:       defaults.City,
		Items:       []LineItem{},
		Attachments: []Attachment{},
		Legal:       LegalTerms{PenaltyRate: decimal.Zero},
		Status:      StatusDraft,
		Currency:    defaults.Currency,
		VAT: VATSettings{
			Rate:          defaults.VATRate,
			Include:       false,
			ShowBreakdown: true,
		},
		Page:       DefaultPageSettings(),
		Typography: DefaultTypographySettings(),
		Table:      DefaultTableSettings(),
		Signature:  DefaultSignatureSettings(),
		AutoQR:     DefaultQRCodeSettings(QRBottomRight),
		CustomQR:   DefaultQRCodeSettings(QRBottomLeft),
		Watermark:  DefaultWatermarkSettings(),
		Security:   DefaultSecuritySettings(),
		Output:     OutputSettings{ShowPageNumbers: true},
		Defaults:   defaults,
	}
}

// Clone returns a deep copy that shares no slices with the receiver
func (a *Act) Clone() *Act {
	c := *a
	c.Items = slices.Clone(a.Items)
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	c.Attachments = slices.Clone(a.Attachments)
	if c.Attachments == nil {
		c.Attachments = []Attachment{}
	}
	return &c
}

// NewItem returns an empty line item seeded with the default unit
func (a *Act) NewItem() LineItem {
	return LineItem{Unit: a.Defaults.Unit, Quantity: decimal.NewFromInt(1)}
}

// AddItem appends a line item
func (a *Act) AddItem(item LineItem) {
	a.Items = append(a.Items, item)
}

// RemoveItem removes the item at index i
func (a *Act) RemoveItem(i int) error {
	if i < 0 || i >= len(a.Items) {
		return shared.ErrInvalidInput.Withf("line item %d does not exist", i)
	}
	a.Items = slices.Delete(a.Items, i, i+1)
	return nil
}

// AddAttachment appends an attachment at the end of the print order
func (a *Act) AddAttachment(path, caption string) {
	a.Attachments = append(a.Attachments, Attachment{Path: path, Caption: caption})
}

// MoveAttachment moves the attachment at from so that it ends up at index to
func (a *Act) MoveAttachment(from, to int) error {
	n := len(a.Attachments)
	if from < 0 || from >= n || to < 0 || to >= n {
		return shared.ErrInvalidInput.Withf("cannot move attachment %d to %d", from, to)
	}
	if from == to {
		return nil
	}
	item := a.Attachments[from]
	a.Attachments = slices.Delete(a.Attachments, from, from+1)
	a.Attachments = slices.Insert(a.Attachments, to, item)
	return nil
}

// RemoveAttachment removes the attachment at index i
func (a *Act) RemoveAttachment(i int) error {
	if i < 0 || i >= len(a.Attachments) {
		return shared.ErrInvalidInput.Withf("attachment %d does not exist", i)
	}
	a.Attachments = slices.Delete(a.Attachments, i, i+1)
	return nil
}

// Totals computes subtotal, VAT and grand total from the current items
func (a *Act) Totals() Totals {
	return ComputeTotals(a.Items, a.VAT.Rate, a.VAT.Include, a.Currency)
}

// TransitionTo moves the act to the target status if the lifecycle allows it
func (a *Act) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.ErrInvalidInput.Withf("unknown status %q", target)
	}
	if !a.Status.CanTransitionTo(target) {
		return shared.ErrInvalidState.Withf("cannot change status from %s to %s", a.Status, target)
	}
	a.Status = target
	return nil
}

// ApplyDefaults copies the seed values of d into an act that has not been
// filled in yet: place, currency and VAT rate.
func (a *Act) ApplyDefaults(d DefaultsSettings) {
	a.Defaults = d
	if d.City != "" {
		a.Place = d.City
	}
	if d.Currency.IsValid() {
		a.Currency = d.Currency
	}
	a.VAT.Rate = d.VATRate
}
