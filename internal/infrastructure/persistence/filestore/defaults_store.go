package filestore

import (
	"context"

	"go.uber.org/zap"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
)

// DefaultsStore keeps the single record new acts are seeded from
type DefaultsStore struct {
	path string
	file *recordFile
}

// NewDefaultsStore creates a store for the defaults file at path
func NewDefaultsStore(path string, logger *zap.Logger) *DefaultsStore {
	return &DefaultsStore{path: path, file: newRecordFile(logger)}
}

// Path returns the defaults file location
func (s *DefaultsStore) Path() string {
	return s.path
}

// Save overwrites the defaults file with a
func (s *DefaultsStore) Save(ctx context.Context, a *act.Act) error {
	if err := s.file.write(ctx, s.path, codec.ToRecord(a)); err != nil {
		return err
	}
	s.file.logger.Info("defaults saved", zap.String("path", s.path))
	return nil
}

// Load reads the defaults file. A missing file is shared.ErrNotFound.
func (s *DefaultsStore) Load(ctx context.Context) (*act.Act, error) {
	rec, err := s.file.read(ctx, s.path)
	if err != nil {
		return nil, err
	}
	return codec.FromRecord(rec), nil
}
