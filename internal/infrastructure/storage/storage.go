// Package storage keeps exported act documents on the local file system or
// in an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/actdesk/backend/internal/infrastructure/config"
)

var (
	// ErrInvalidKey is returned for empty keys and keys escaping the store
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrNotFound is returned when the object does not exist
	ErrNotFound = errors.New("stored document not found")
)

// DocumentStorage stores exported documents
type DocumentStorage interface {
	// Store saves a document and returns its key and URL
	Store(ctx context.Context, req *StoreRequest) (*StoreResult, error)
	// Get opens a stored document
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a document; deleting a missing key succeeds
	Delete(ctx context.Context, key string) error
	// URL returns an address the document can be fetched from
	URL(ctx context.Context, key string) (string, error)
}

// StoreRequest contains the parameters for storing a document
type StoreRequest struct {
	// ExportID names the object
	ExportID uuid.UUID
	// Extension including the dot, e.g. ".pdf"
	Extension   string
	ContentType string
	Data        []byte
	// CreatedAt places the object in its year/month folder; zero means now
	CreatedAt time.Time
}

func (r *StoreRequest) validate() error {
	if r == nil {
		return errors.New("store request is nil")
	}
	if r.ExportID == uuid.Nil {
		return errors.New("export ID is required")
	}
	if len(r.Data) == 0 {
		return errors.New("document data is empty")
	}
	if !strings.HasPrefix(r.Extension, ".") || strings.ContainsAny(r.Extension, `/\`) {
		return fmt.Errorf("invalid extension %q", r.Extension)
	}
	return nil
}

// key builds "{year}/{month}/{export_id}{ext}"
func (r *StoreRequest) key() string {
	t := r.CreatedAt
	if t.IsZero() {
		t = time.Now()
	}
	return path.Join(fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", t.Month()), r.ExportID.String()+r.Extension)
}

// StoreResult contains the result of storing a document
type StoreResult struct {
	Key  string
	URL  string
	Size int64
}

// cleanKey rejects absolute keys and any ".." component
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrInvalidKey
	}
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' })
	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, `\`) || slices.Contains(parts, "..") || len(parts) == 0 {
		return "", ErrInvalidKey
	}
	return strings.Join(parts, "/"), nil
}

// New creates the storage backend selected by configuration
func New(cfg *config.StorageConfig, logger *zap.Logger) (DocumentStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	switch cfg.Backend {
	case "s3":
		return NewS3DocumentStorage(cfg, WithLogger(logger))
	case "local", "":
		return NewFileSystemStorage(&FileSystemStorageConfig{
			BasePath: cfg.LocalPath,
			BaseURL:  cfg.BaseURL,
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
