package models

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/actdesk/backend/internal/domain/export"
)

// ExportModel is the GORM model for the export_records table
type ExportModel struct {
	BaseModel
	ActNumber   string          `gorm:"column:act_number;type:varchar(100);index"`
	ActDate     string          `gorm:"column:act_date;type:varchar(20)"`
	Acceptor    string          `gorm:"type:varchar(255)"`
	Transferor  string          `gorm:"type:varchar(255)"`
	Format      string          `gorm:"type:varchar(10);not null"`
	ContentType string          `gorm:"column:content_type;type:varchar(100)"`
	StorageKey  string          `gorm:"column:storage_key;type:varchar(500);not null"`
	URL         string          `gorm:"column:url;type:text"`
	Size        int64           `gorm:"not null;default:0"`
	GrandTotal  decimal.Decimal `gorm:"column:grand_total;type:decimal(18,2);not null;default:0"`
	Currency    string          `gorm:"type:varchar(3)"`
	PageCount   int             `gorm:"column:page_count;not null;default:0"`
	// Warnings are newline separated
	Warnings string `gorm:"type:text"`
}

// TableName returns the table name for ExportModel
func (ExportModel) TableName() string {
	return "export_records"
}

// ToDomain converts ExportModel to an export record
func (m *ExportModel) ToDomain() *export.Record {
	var warnings []string
	if m.Warnings != "" {
		warnings = strings.Split(m.Warnings, "\n")
	}
	return &export.Record{
		BaseEntity:  m.BaseModel.entity(),
		ActNumber:   m.ActNumber,
		ActDate:     m.ActDate,
		Acceptor:    m.Acceptor,
		Transferor:  m.Transferor,
		Format:      m.Format,
		ContentType: m.ContentType,
		StorageKey:  m.StorageKey,
		URL:         m.URL,
		Size:        m.Size,
		GrandTotal:  m.GrandTotal,
		Currency:    m.Currency,
		PageCount:   m.PageCount,
		Warnings:    warnings,
	}
}

// ExportModelFromDomain creates an ExportModel from an export record
func ExportModelFromDomain(r *export.Record) *ExportModel {
	return &ExportModel{
		BaseModel:   baseModelOf(r.BaseEntity),
		ActNumber:   r.ActNumber,
		ActDate:     r.ActDate,
		Acceptor:    r.Acceptor,
		Transferor:  r.Transferor,
		Format:      r.Format,
		ContentType: r.ContentType,
		StorageKey:  r.StorageKey,
		URL:         r.URL,
		Size:        r.Size,
		GrandTotal:  r.GrandTotal,
		Currency:    r.Currency,
		PageCount:   r.PageCount,
		Warnings:    strings.Join(r.Warnings, "\n"),
	}
}
