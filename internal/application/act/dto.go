package act

import (
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/addressbook"
	"github.com/actdesk/backend/internal/domain/export"
)

// =============================================================================
// Render and preview DTOs
// =============================================================================

// TotalsResponse is the money summary of an act, as fixed two-decimal strings
type TotalsResponse struct {
	Currency   string `json:"currency"`
	Subtotal   string `json:"subtotal"`
	VATRate    string `json:"vat_rate"`
	VAT        string `json:"vat"`
	Grand      string `json:"grand_total"`
	IncludeVAT bool   `json:"include_vat"`
	ItemCount  int    `json:"item_count"`
}

// PreviewOutput is one rasterized page
type PreviewOutput struct {
	Image      []byte
	Page       int
	PageCount  int
	CacheHit   bool
	Rasterizer string
}

// ExportResponse describes a stored export
type ExportResponse struct {
	ID          string    `json:"id"`
	ActNumber   string    `json:"act_number"`
	ActDate     string    `json:"act_date"`
	Acceptor    string    `json:"acceptor"`
	Transferor  string    `json:"transferor"`
	Format      string    `json:"format"`
	ContentType string    `json:"content_type"`
	StorageKey  string    `json:"storage_key"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	GrandTotal  string    `json:"grand_total"`
	Currency    string    `json:"currency"`
	PageCount   int       `json:"page_count"`
	Warnings    []string  `json:"warnings"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListExportsRequest filters the export history
type ListExportsRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search    string `form:"search"`
	Format    string `form:"format" binding:"omitempty,oneof=pdf docx html"`
	ActNumber string `form:"act_number"`
}

// ListExportsResponse is one page of export history
type ListExportsResponse struct {
	Items []ExportResponse `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

// =============================================================================
// Address book DTOs
// =============================================================================

// PartyRequest creates or updates an address book entry
type PartyRequest struct {
	Name               string `json:"name" binding:"required,max=300"`
	RegistrationNumber string `json:"registration_number" binding:"max=50"`
	Address            string `json:"address" binding:"max=500"`
	ContactName        string `json:"contact_name" binding:"max=200"`
	Phone              string `json:"phone" binding:"max=50"`
	Email              string `json:"email" binding:"omitempty,email"`
	BankAccount        string `json:"bank_account" binding:"omitempty,max=50,iban"`
	LegalStatus        string `json:"legal_status"`
}

// ToParty converts the request to a domain party
func (r PartyRequest) ToParty() domain.Party {
	return domain.Party{
		Name:               r.Name,
		RegistrationNumber: r.RegistrationNumber,
		Address:            r.Address,
		ContactName:        r.ContactName,
		Phone:              r.Phone,
		Email:              r.Email,
		BankAccount:        r.BankAccount,
		LegalStatus:        domain.LegalStatus(r.LegalStatus),
	}
}

// PartyResponse is one address book entry
type PartyResponse struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	RegistrationNumber string     `json:"registration_number"`
	Address            string     `json:"address"`
	ContactName        string     `json:"contact_name"`
	Phone              string     `json:"phone"`
	Email              string     `json:"email"`
	BankAccount        string     `json:"bank_account"`
	LegalStatus        string     `json:"legal_status"`
	UseCount           int        `json:"use_count"`
	LastUsedAt         *time.Time `json:"last_used_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ListPartiesRequest filters the address book
type ListPartiesRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
}

// ListPartiesResponse is one page of the address book
type ListPartiesResponse struct {
	Items []PartyResponse `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

// =============================================================================
// Validation DTOs
// =============================================================================

// FieldError names one invalid record field by its JSON key
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// =============================================================================
// Conversions
// =============================================================================

func toTotalsResponse(a *domain.Act) *TotalsResponse {
	t := a.Totals()
	return &TotalsResponse{
		Currency:   string(a.Currency),
		Subtotal:   t.Subtotal.Fixed(),
		VATRate:    a.VAT.Rate.String(),
		VAT:        t.VAT.Fixed(),
		Grand:      t.Grand.Fixed(),
		IncludeVAT: a.VAT.Include,
		ItemCount:  len(a.Items),
	}
}

func toExportResponse(r *export.Record) ExportResponse {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return ExportResponse{
		ID:          r.ID.String(),
		ActNumber:   r.ActNumber,
		ActDate:     r.ActDate,
		Acceptor:    r.Acceptor,
		Transferor:  r.Transferor,
		Format:      r.Format,
		ContentType: r.ContentType,
		StorageKey:  r.StorageKey,
		URL:         r.URL,
		Size:        r.Size,
		GrandTotal:  fixed(r.GrandTotal),
		Currency:    r.Currency,
		PageCount:   r.PageCount,
		Warnings:    warnings,
		CreatedAt:   r.CreatedAt,
	}
}

func toPartyResponse(e *addressbook.Entry) PartyResponse {
	resp := PartyResponse{
		ID:                 e.ID.String(),
		Name:               e.Party.Name,
		RegistrationNumber: e.Party.RegistrationNumber,
		Address:            e.Party.Address,
		ContactName:        e.Party.ContactName,
		Phone:              e.Party.Phone,
		Email:              e.Party.Email,
		BankAccount:        e.Party.BankAccount,
		LegalStatus:        string(e.Party.LegalStatus),
		UseCount:           e.UseCount,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
	if !e.LastUsedAt.IsZero() {
		last := e.LastUsedAt
		resp.LastUsedAt = &last
	}
	return resp
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
