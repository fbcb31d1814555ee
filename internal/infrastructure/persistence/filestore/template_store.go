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
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
)

// TemplateInfo describes a saved template
type TemplateInfo struct {
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Protected  bool      `json:"protected"`
	ModifiedAt time.Time `json:"modified_at"`
}

// TemplateStore keeps named templates as <dir>/<slug>.json. It stores
// whatever record it is given; scrubbing is the caller's job.
type TemplateStore struct {
	dir  string
	file *recordFile
}

// NewTemplateStore creates a template store rooted at dir
func NewTemplateStore(dir string, logger *zap.Logger) *TemplateStore {
	return &TemplateStore{dir: dir, file: newRecordFile(logger)}
}

// Slug turns a display name into a file-safe name: diacritics are
// stripped, letters lower-cased and every other run of characters becomes
// a single dash. "Būvdarbu akts" becomes "buvdarbu-akts".
func Slug(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (s *TemplateStore) path(name string) (string, error) {
	slug := Slug(name)
	if slug == "" {
		return "", shared.ErrInvalidInput.Withf("template name %q has no usable characters", name)
	}
	return filepath.Join(s.dir, slug+".json"), nil
}

// Save writes rec as the template name. The record's template fields are
// set from name and password; an empty password leaves it unprotected.
func (s *TemplateStore) Save(ctx context.Context, name, password string, rec *codec.Record) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	out := *rec
	out.TemplateName = strings.TrimSpace(name)
	out.TemplatePassword = password
	if err := s.file.write(ctx, path, &out); err != nil {
		return err
	}
	s.file.logger.Info("template saved", zap.String("name", out.TemplateName), zap.Bool("protected", password != ""))
	return nil
}

// Load reads the template record, password field included
func (s *TemplateStore) Load(ctx context.Context, name string) (*codec.Record, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return s.file.read(ctx, path)
}

// Exists reports whether a template with that name is stored
func (s *TemplateStore) Exists(name string) bool {
	path, err := s.path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// List returns the readable templates sorted by name. Corrupt files are
// skipped with a warning.
func (s *TemplateStore) List(ctx context.Context) ([]TemplateInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []TemplateInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	templates := make([]TemplateInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		rec, err := s.file.read(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.file.logger.Warn("skipping unreadable template", zap.String("path", path), zap.Error(err))
			continue
		}
		slug := strings.TrimSuffix(entry.Name(), ".json")
		info := TemplateInfo{Name: rec.TemplateName, Slug: slug, Protected: rec.TemplatePassword != ""}
		if info.Name == "" {
			info.Name = slug
		}
		if fi, err := entry.Info(); err == nil {
			info.ModifiedAt = fi.ModTime()
		}
		templates = append(templates, info)
	}
	slices.SortFunc(templates, func(a, b TemplateInfo) int { return strings.Compare(a.Slug, b.Slug) })
	return templates, nil
}

// Delete removes the template
func (s *TemplateStore) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: template %q", shared.ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	s.file.logger.Info("template deleted", zap.String("name", name))
	return nil
}
