package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/actdesk/backend/internal/domain/addressbook"
	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/persistence/models"
)

// GormAddressBookRepository implements addressbook.Repository using GORM
type GormAddressBookRepository struct {
	db *gorm.DB
}

// NewGormAddressBookRepository creates a new GormAddressBookRepository
func NewGormAddressBookRepository(db *gorm.DB) *GormAddressBookRepository {
	return &GormAddressBookRepository{db: db}
}

// FindByID finds an entry by ID
func (r *GormAddressBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*addressbook.Entry, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByKey finds an entry by its lookup key
func (r *GormAddressBookRepository) FindByKey(ctx context.Context, key string) (*addressbook.Entry, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).Where("lookup_key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of entries and the total matching count
func (r *GormAddressBookRepository) FindAll(ctx context.Context, filter shared.Filter) ([]addressbook.Entry, int64, error) {
	var total int64
	base := r.applySearch(r.db.WithContext(ctx).Model(&models.PartyModel{}), filter)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var partyModels []models.PartyModel
	query := paginate(r.applySearch(r.db.WithContext(ctx).Model(&models.PartyModel{}), filter), filter)
	query = query.Order(addressBookSort.OrderClause(filter.OrderBy, filter.OrderDir))
	if err := query.Find(&partyModels).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]addressbook.Entry, len(partyModels))
	for i, model := range partyModels {
		entries[i] = *model.ToDomain()
	}
	return entries, total, nil
}

// Save saves an entry (insert or update)
func (r *GormAddressBookRepository) Save(ctx context.Context, entry *addressbook.Entry) error {
	model := models.PartyModelFromDomain(entry)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes an entry by ID
func (r *GormAddressBookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PartyModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormAddressBookRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	search := strings.TrimSpace(filter.Search)
	if search == "" {
		return query
	}
	like := "%" + strings.ToLower(search) + "%"
	return query.Where(
		"LOWER(name) LIKE ? OR LOWER(registration_number) LIKE ? OR LOWER(contact_name) LIKE ? OR LOWER(email) LIKE ?",
		like, like, like, like,
	)
}

// paginate applies offset and limit when the filter asks for a page
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if !filter.Paged() {
		return query
	}
	return query.Offset(filter.Offset()).Limit(filter.PageSize)
}

// Ensure GormAddressBookRepository implements addressbook.Repository
var _ addressbook.Repository = (*GormAddressBookRepository)(nil)
