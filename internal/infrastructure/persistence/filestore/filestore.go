// Package filestore keeps act records as JSON files: project files, named
// templates and the single defaults file. Writes are atomic (temp file and
// rename in the same directory), so the last write wins.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
)

// recordFile reads and writes record files under one mutex
type recordFile struct {
	mu     sync.Mutex
	logger *zap.Logger
}

func newRecordFile(logger *zap.Logger) *recordFile {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &recordFile{logger: logger}
}

// read decodes the record at path. A missing file is shared.ErrNotFound,
// an unreadable one shared.ErrCorruptFile.
func (f *recordFile) read(ctx context.Context, path string) (*codec.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	text, ok := decodeText(data)
	if !ok {
		f.logger.Warn("record file has no usable encoding", zap.String("path", path))
		return nil, fmt.Errorf("%w: %s", shared.ErrCorruptFile, filepath.Base(path))
	}
	rec, err := codec.Decode(text)
	if err != nil {
		f.logger.Warn("record file is not a valid act record", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return rec, nil
}

// write encodes rec to path atomically
func (f *recordFile) write(ctx context.Context, path string, rec *codec.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := codec.Encode(rec)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := writeAtomic(path, data); err != nil {
		return err
	}
	f.logger.Debug("record written", zap.String("path", path), zap.Int("size", len(data)))
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// within joins name onto dir and rejects results outside dir
func within(dir, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", shared.ErrInvalidInput.WithMessage("file name is required")
	}
	if filepath.IsAbs(name) {
		return "", shared.ErrInvalidInput.WithMessage("file name must be relative")
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	full := filepath.Join(absDir, filepath.FromSlash(name))
	if !strings.HasPrefix(full, absDir+string(filepath.Separator)) {
		return "", shared.ErrInvalidInput.Withf("file name %q leaves the store directory", name)
	}
	return full, nil
}
