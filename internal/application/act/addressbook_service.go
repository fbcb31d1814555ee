package act

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/addressbook"
	"github.com/actdesk/backend/internal/domain/shared"
)

// AddressBookService remembers the parties acts are issued to
type AddressBookService struct {
	repo   addressbook.Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewAddressBookService creates a new AddressBookService
func NewAddressBookService(repo addressbook.Repository, logger *zap.Logger) *AddressBookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressBookService{repo: repo, now: time.Now, logger: logger}
}

// SetClock replaces the clock used for last-used timestamps
func (s *AddressBookService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns one page of remembered parties, most used first by default
func (s *AddressBookService) List(ctx context.Context, req ListPartiesRequest) (*ListPartiesResponse, error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	entries, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	items := make([]PartyResponse, len(entries))
	for i := range entries {
		items[i] = toPartyResponse(&entries[i])
	}
	return &ListPartiesResponse{Items: items, Total: total, Page: filter.Page, Size: filter.PageSize}, nil
}

// Get returns one entry
func (s *AddressBookService) Get(ctx context.Context, id uuid.UUID) (*PartyResponse, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toPartyResponse(entry)
	return &resp, nil
}

// Save stores p, merging it into the entry with the same key when there is one
func (s *AddressBookService) Save(ctx context.Context, p domain.Party) (*PartyResponse, error) {
	entry, err := s.upsert(ctx, p, false)
	if err != nil {
		return nil, err
	}
	resp := toPartyResponse(entry)
	return &resp, nil
}

// Update replaces the details of entry id
func (s *AddressBookService) Update(ctx context.Context, id uuid.UUID, p domain.Party) (*PartyResponse, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, shared.ErrInvalidInput.WithMessage("party name is required")
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entry.Update(p)
	if err := s.repo.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save party: %w", err)
	}
	resp := toPartyResponse(entry)
	return &resp, nil
}

// Delete removes entry id
func (s *AddressBookService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Remember records one use of each named party. Parties without a name
// are skipped.
func (s *AddressBookService) Remember(ctx context.Context, parties ...domain.Party) error {
	var errs []error
	for _, p := range parties {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		if _, err := s.upsert(ctx, p, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *AddressBookService) upsert(ctx context.Context, p domain.Party, touch bool) (*addressbook.Entry, error) {
	entry, err := s.repo.FindByKey(ctx, addressbook.KeyOf(p))
	switch {
	case err == nil:
		entry.Update(p)
	case errors.Is(err, shared.ErrNotFound):
		if entry, err = addressbook.NewEntry(p); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to look up party: %w", err)
	}
	if touch {
		entry.Touch(s.now())
	}
	if err := s.repo.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save party: %w", err)
	}
	s.logger.Debug("party remembered", zap.String("key", entry.Key()), zap.Int("use_count", entry.UseCount))
	return entry, nil
}
