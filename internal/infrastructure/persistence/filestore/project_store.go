package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
)

// FileInfo describes a stored record file
type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ProjectStore keeps full-fidelity act records under one directory
type ProjectStore struct {
	dir  string
	file *recordFile
}

// NewProjectStore creates a project store rooted at dir
func NewProjectStore(dir string, logger *zap.Logger) *ProjectStore {
	return &ProjectStore{dir: dir, file: newRecordFile(logger)}
}

func (s *ProjectStore) path(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return within(s.dir, name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		name += ".json"
	}
	return within(s.dir, name)
}

// Save writes every field of a to name (".json" is appended when missing)
// and returns the path written
func (s *ProjectStore) Save(ctx context.Context, name string, a *act.Act) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := s.file.write(ctx, path, codec.ToRecord(a)); err != nil {
		return "", err
	}
	s.file.logger.Info("project saved", zap.String("path", path))
	return path, nil
}

// Load reads the project at name into a new act
func (s *ProjectStore) Load(ctx context.Context, name string) (*act.Act, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	rec, err := s.file.read(ctx, path)
	if err != nil {
		return nil, err
	}
	return codec.FromRecord(rec), nil
}

// List returns the project files, newest first
func (s *ProjectStore) List(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(s.dir, path)
		files = append(files, FileInfo{Name: filepath.ToSlash(rel), Size: info.Size(), ModifiedAt: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	slices.SortFunc(files, func(a, b FileInfo) int { return b.ModifiedAt.Compare(a.ModifiedAt) })
	return files, nil
}

// Delete removes a project file
func (s *ProjectStore) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
