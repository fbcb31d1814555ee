package act

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"go.uber.org/zap"

	domain "github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
	"github.com/actdesk/backend/internal/infrastructure/persistence/filestore"
)

// ProjectStore keeps full acts by file name
type ProjectStore interface {
	Save(ctx context.Context, name string, a *domain.Act) (string, error)
	Load(ctx context.Context, name string) (*domain.Act, error)
	List(ctx context.Context) ([]filestore.FileInfo, error)
	Delete(ctx context.Context, name string) error
}

// TemplateStore keeps named, optionally password protected templates
type TemplateStore interface {
	Save(ctx context.Context, name, password string, rec *codec.Record) error
	Load(ctx context.Context, name string) (*codec.Record, error)
	Exists(name string) bool
	List(ctx context.Context) ([]filestore.TemplateInfo, error)
	Delete(ctx context.Context, name string) error
}

// DefaultsStore keeps the single defaults file
type DefaultsStore interface {
	Save(ctx context.Context, a *domain.Act) error
	Load(ctx context.Context) (*domain.Act, error)
}

// DocumentService manages acts as files: projects, templates and defaults
type DocumentService struct {
	projects  ProjectStore
	templates TemplateStore
	defaults  DefaultsStore
	logger    *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(projects ProjectStore, templates TemplateStore, defaults DefaultsStore, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		projects:  projects,
		templates: templates,
		defaults:  defaults,
		logger:    logger,
	}
}

// NewAct returns a fresh act seeded from the defaults file when one exists
func (s *DocumentService) NewAct(ctx context.Context) *domain.Act {
	if s.defaults == nil {
		return domain.New()
	}
	a, err := s.defaults.Load(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("defaults unreadable, using built-in defaults", zap.Error(err))
		}
		return domain.New()
	}
	a.Status = domain.StatusDraft
	return a
}

// SaveProject writes every field of a and returns the path written
func (s *DocumentService) SaveProject(ctx context.Context, name string, a *domain.Act) (string, error) {
	if a == nil {
		return "", shared.ErrInvalidInput.WithMessage("act is required")
	}
	path, err := s.projects.Save(ctx, name, a)
	if err != nil {
		return "", err
	}
	s.logger.Info("project saved", zap.String("name", name), zap.String("act_number", a.Number))
	return path, nil
}

// LoadProject reads a saved project
func (s *DocumentService) LoadProject(ctx context.Context, name string) (*domain.Act, error) {
	return s.projects.Load(ctx, name)
}

// ListProjects lists saved projects
func (s *DocumentService) ListProjects(ctx context.Context) ([]filestore.FileInfo, error) {
	return s.projects.List(ctx)
}

// DeleteProject removes a saved project
func (s *DocumentService) DeleteProject(ctx context.Context, name string) error {
	return s.projects.Delete(ctx, name)
}

// SaveTemplate stores a as a reusable template. Act identifiers, items,
// attachments and PDF passwords are not kept; parties and styling are.
func (s *DocumentService) SaveTemplate(ctx context.Context, name, password string, a *domain.Act) error {
	if a == nil {
		return shared.ErrInvalidInput.WithMessage("act is required")
	}
	if strings.TrimSpace(name) == "" {
		return shared.ErrInvalidInput.WithMessage("template name is required")
	}
	return s.templates.Save(ctx, name, password, codec.ToRecord(a.ScrubForTemplate()))
}

// LoadTemplate reads a template. A protected template needs its password;
// a wrong one yields shared.ErrTemplatePassword.
func (s *DocumentService) LoadTemplate(ctx context.Context, name, password string) (*domain.Act, error) {
	rec, err := s.templates.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec.TemplatePassword != "" &&
		subtle.ConstantTimeCompare([]byte(rec.TemplatePassword), []byte(password)) != 1 {
		s.logger.Warn("template password mismatch", zap.String("name", name))
		return nil, shared.ErrTemplatePassword
	}
	a := codec.FromRecord(rec)
	a.Status = domain.StatusDraft
	return a, nil
}

// TemplateExists reports whether a template is stored under name
func (s *DocumentService) TemplateExists(name string) bool {
	return s.templates.Exists(name)
}

// ListTemplates lists stored templates
func (s *DocumentService) ListTemplates(ctx context.Context) ([]filestore.TemplateInfo, error) {
	return s.templates.List(ctx)
}

// DeleteTemplate removes a template
func (s *DocumentService) DeleteTemplate(ctx context.Context, name string) error {
	return s.templates.Delete(ctx, name)
}

// SaveDefaults stores a as the seed for new acts
func (s *DocumentService) SaveDefaults(ctx context.Context, a *domain.Act) error {
	if a == nil {
		return shared.ErrInvalidInput.WithMessage("act is required")
	}
	if s.defaults == nil {
		return shared.ErrInvalidState.WithMessage("defaults storage is not configured")
	}
	return s.defaults.Save(ctx, a.ScrubForDefaults())
}

// LoadDefaults reads the defaults file; shared.ErrNotFound when none is saved
func (s *DocumentService) LoadDefaults(ctx context.Context) (*domain.Act, error) {
	if s.defaults == nil {
		return nil, shared.ErrNotFound
	}
	return s.defaults.Load(ctx)
}

// ChangeStatus moves a to the named status. Unknown names are rejected
// rather than read as Draft.
func (s *DocumentService) ChangeStatus(a *domain.Act, target string) error {
	if a == nil {
		return shared.ErrInvalidInput.WithMessage("act is required")
	}
	status := domain.ParseStatus(target)
	if !strings.EqualFold(string(status), strings.TrimSpace(target)) {
		return shared.ErrInvalidInput.Withf("unknown status %q", target)
	}
	return a.TransitionTo(status)
}
