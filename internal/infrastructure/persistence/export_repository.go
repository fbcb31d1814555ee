package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/actdesk/backend/internal/domain/export"
	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/persistence/models"
)

// GormExportRepository implements export.Repository using GORM
type GormExportRepository struct {
	db *gorm.DB
}

// NewGormExportRepository creates a new GormExportRepository
func NewGormExportRepository(db *gorm.DB) *GormExportRepository {
	return &GormExportRepository{db: db}
}

// FindByID finds an export record by ID
func (r *GormExportRepository) FindByID(ctx context.Context, id uuid.UUID) (*export.Record, error) {
	var model models.ExportModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of export records and the total matching count
func (r *GormExportRepository) FindAll(ctx context.Context, filter shared.Filter) ([]export.Record, int64, error) {
	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ExportModel{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var exportModels []models.ExportModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.ExportModel{}), filter), filter)
	query = query.Order(exportSort.OrderClause(filter.OrderBy, filter.OrderDir))
	if err := query.Find(&exportModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]export.Record, len(exportModels))
	for i, model := range exportModels {
		records[i] = *model.ToDomain()
	}
	return records, total, nil
}

// Save saves an export record (insert or update)
func (r *GormExportRepository) Save(ctx context.Context, record *export.Record) error {
	model := models.ExportModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindOlderThan returns up to limit records created before cutoff, oldest first
func (r *GormExportRepository) FindOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]export.Record, error) {
	var exportModels []models.ExportModel
	query := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&exportModels).Error; err != nil {
		return nil, err
	}
	records := make([]export.Record, len(exportModels))
	for i, model := range exportModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// Delete removes an export record
func (r *GormExportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ExportModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormExportRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(act_number) LIKE ? OR LOWER(acceptor) LIKE ? OR LOWER(transferor) LIKE ?",
			like, like, like,
		)
	}
	for key, value := range filter.Filters {
		switch key {
		case "format":
			query = query.Where("format = ?", value)
		case "act_number":
			query = query.Where("act_number = ?", value)
		}
	}
	return query
}

// Ensure GormExportRepository implements export.Repository
var (
	_ export.Repository = (*GormExportRepository)(nil)
	_ export.Pruner     = (*GormExportRepository)(nil)
)
