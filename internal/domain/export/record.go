// Package export keeps the history of rendered and stored act documents
package export

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/shared"
)

// Record is one stored export
type Record struct {
	shared.BaseEntity
	ActNumber   string
	ActDate     string
	Acceptor    string
	Transferor  string
	Format      string
	ContentType string
	StorageKey  string
	URL         string
	Size        int64
	GrandTotal  decimal.Decimal
	Currency    string
	PageCount   int
	Warnings    []string
}

// NewRecord snapshots the identifying fields of a
func NewRecord(a *act.Act, format string) *Record {
	totals := a.Totals()
	return &Record{
		BaseEntity: shared.NewBaseEntity(),
		ActNumber:  a.Number,
		ActDate:    a.Date,
		Acceptor:   a.Acceptor.Name,
		Transferor: a.Transferor.Name,
		Format:     strings.ToLower(format),
		GrandTotal: totals.Grand.Amount(),
		Currency:   totals.Grand.Currency().String(),
	}
}

// Stored fills in where the document ended up
func (r *Record) Stored(key, url, contentType string, size int64) {
	r.StorageKey = key
	r.URL = url
	r.ContentType = contentType
	r.Size = size
	r.MarkUpdated(time.Now())
}

// Repository persists export records
type Repository interface {
	Save(ctx context.Context, record *Record) error
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// FindAll returns records newest first plus the total count.
	// filter.Search matches the act number and both party names.
	FindAll(ctx context.Context, filter shared.Filter) ([]Record, int64, error)
}

// Pruner removes records past their retention period
type Pruner interface {
	// FindOlderThan returns up to limit records created before cutoff, oldest first
	FindOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
