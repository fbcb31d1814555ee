package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/actdesk/backend/internal/domain/export"
	"github.com/actdesk/backend/internal/infrastructure/storage"
)

// ExportRetentionConfig holds configuration for the export retention sweep
type ExportRetentionConfig struct {
	// MaxAge is how long exports are kept
	MaxAge time.Duration
	// BatchSize bounds the records loaded per query
	BatchSize int
}

// RetentionResult summarizes one sweep
type RetentionResult struct {
	Removed int
	Failed  int
	// Orphans are stored files with no history record, removed by age
	Orphans int
}

// orphanCleaner is implemented by storages that can remove files by age
type orphanCleaner interface {
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// ExportRetention deletes exported documents and their history records once
// they are older than MaxAge
type ExportRetention struct {
	config  ExportRetentionConfig
	records export.Pruner
	storage storage.DocumentStorage
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportRetention creates the sweep
func NewExportRetention(config ExportRetentionConfig, records export.Pruner, store storage.DocumentStorage, logger *zap.Logger) (*ExportRetention, error) {
	if config.MaxAge <= 0 {
		return nil, fmt.Errorf("%w: retention must be positive", ErrInvalidConfig)
	}
	if records == nil || store == nil {
		return nil, fmt.Errorf("%w: export history and storage are required", ErrInvalidConfig)
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportRetention{
		config:  config,
		records: records,
		storage: store,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Run removes every expired export. A record whose document cannot be
// deleted is kept so the next sweep retries it.
func (r *ExportRetention) Run(ctx context.Context) (RetentionResult, error) {
	var result RetentionResult
	cutoff := r.now().Add(-r.config.MaxAge)
	failed := make(map[string]bool)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		limit := r.config.BatchSize + len(failed)
		batch, err := r.records.FindOlderThan(ctx, cutoff, limit)
		if err != nil {
			return result, fmt.Errorf("failed to list expired exports: %w", err)
		}

		attempted := 0
		for _, rec := range batch {
			if failed[rec.ID.String()] {
				continue
			}
			attempted++
			if err := r.remove(ctx, &rec); err != nil {
				failed[rec.ID.String()] = true
				result.Failed++
				r.logger.Warn("Failed to remove expired export",
					zap.String("export_id", rec.ID.String()),
					zap.String("storage_key", rec.StorageKey),
					zap.Error(err),
				)
				continue
			}
			result.Removed++
		}

		if attempted == 0 || len(batch) < limit {
			break
		}
	}

	if cleaner, ok := r.storage.(orphanCleaner); ok {
		orphans, err := cleaner.CleanupOlderThan(ctx, r.config.MaxAge)
		if err != nil {
			r.logger.Warn("Orphan cleanup failed", zap.Error(err))
		}
		result.Orphans = orphans
	}

	r.logger.Info("Export retention sweep completed",
		zap.Int("removed", result.Removed),
		zap.Int("failed", result.Failed),
		zap.Int("orphans", result.Orphans),
		zap.Time("cutoff", cutoff),
	)
	return result, nil
}

func (r *ExportRetention) remove(ctx context.Context, rec *export.Record) error {
	if rec.StorageKey != "" {
		if err := r.storage.Delete(ctx, rec.StorageKey); err != nil {
			return err
		}
	}
	return r.records.Delete(ctx, rec.ID)
}

// Task adapts the sweep for a CronTrigger
func (r *ExportRetention) Task() Task {
	return func(ctx context.Context) error {
		_, err := r.Run(ctx)
		return err
	}
}
