// Package addressbook remembers the parties acts were exported with, so
// they can be picked again when composing the next act.
package addressbook

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/shared"
)

// Entry is one remembered party
type Entry struct {
	shared.BaseEntity
	Party      act.Party
	UseCount   int
	LastUsedAt time.Time
}

// NewEntry creates an entry for p. The party name is required.
func NewEntry(p act.Party) (*Entry, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, shared.ErrInvalidInput.WithMessage("party name is required")
	}
	return &Entry{BaseEntity: shared.NewBaseEntity(), Party: p}, nil
}

// Key identifies the party across acts: the registration number when
// present, otherwise the case-folded name
func (e *Entry) Key() string {
	return KeyOf(e.Party)
}

// KeyOf returns the lookup key of p
func KeyOf(p act.Party) string {
	if reg := strings.ToUpper(strings.Join(strings.Fields(p.RegistrationNumber), "")); reg != "" {
		return "reg:" + reg
	}
	return "name:" + strings.ToLower(strings.Join(strings.Fields(p.Name), " "))
}

// Update replaces the stored party details. Empty incoming fields keep
// the stored value so a sparse act does not erase a full record.
func (e *Entry) Update(p act.Party) {
	merge := func(dst *string, src string) {
		if s := strings.TrimSpace(src); s != "" {
			*dst = s
		}
	}
	merge(&e.Party.Name, p.Name)
	merge(&e.Party.RegistrationNumber, p.RegistrationNumber)
	merge(&e.Party.Address, p.Address)
	merge(&e.Party.ContactName, p.ContactName)
	merge(&e.Party.Phone, p.Phone)
	merge(&e.Party.Email, p.Email)
	merge(&e.Party.BankAccount, p.BankAccount)
	if p.LegalStatus != act.LegalStatusNone {
		e.Party.LegalStatus = p.LegalStatus
	}
	e.MarkUpdated(time.Now())
}

// Touch records one more use at now
func (e *Entry) Touch(now time.Time) {
	e.UseCount++
	e.LastUsedAt = now
	e.MarkUpdated(now)
}

// Repository persists address book entries
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	// FindByKey returns shared.ErrNotFound when no entry has that key
	FindByKey(ctx context.Context, key string) (*Entry, error)
	// FindAll returns entries matching filter.Search plus the total count
	FindAll(ctx context.Context, filter shared.Filter) ([]Entry, int64, error)
	Save(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
}
