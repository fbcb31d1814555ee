package act_test

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	domain "github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/addressbook"
	"github.com/actdesk/backend/internal/domain/export"
	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
	"github.com/actdesk/backend/internal/infrastructure/persistence/filestore"
	"github.com/actdesk/backend/internal/infrastructure/printing"
	"github.com/actdesk/backend/internal/infrastructure/storage"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockRenderer struct {
	mock.Mock
	format printing.Format
}

func (m *MockRenderer) Format() printing.Format {
	return m.format
}

func (m *MockRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.RenderResult), args.Error(1)
}

type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) Name() string {
	return "mock"
}

func (m *MockRasterizer) Rasterize(ctx context.Context, src *printing.RasterSource, page, dpi int) ([]byte, error) {
	args := m.Called(ctx, src, page, dpi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockDocumentStorage struct {
	mock.Mock
}

func (m *MockDocumentStorage) Store(ctx context.Context, req *storage.StoreRequest) (*storage.StoreResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.StoreResult), args.Error(1)
}

func (m *MockDocumentStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockDocumentStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockDocumentStorage) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

type MockExportRepository struct {
	mock.Mock
}

func (m *MockExportRepository) Save(ctx context.Context, record *export.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockExportRepository) FindByID(ctx context.Context, id uuid.UUID) (*export.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.Record), args.Error(1)
}

func (m *MockExportRepository) FindAll(ctx context.Context, filter shared.Filter) ([]export.Record, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]export.Record), args.Get(1).(int64), args.Error(2)
}

type MockAddressBookRepository struct {
	mock.Mock
}

func (m *MockAddressBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*addressbook.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*addressbook.Entry), args.Error(1)
}

func (m *MockAddressBookRepository) FindByKey(ctx context.Context, key string) (*addressbook.Entry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*addressbook.Entry), args.Error(1)
}

func (m *MockAddressBookRepository) FindAll(ctx context.Context, filter shared.Filter) ([]addressbook.Entry, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]addressbook.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockAddressBookRepository) Save(ctx context.Context, entry *addressbook.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAddressBookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTemplateStore struct {
	mock.Mock
}

func (m *MockTemplateStore) Save(ctx context.Context, name, password string, rec *codec.Record) error {
	args := m.Called(ctx, name, password, rec)
	return args.Error(0)
}

func (m *MockTemplateStore) Load(ctx context.Context, name string) (*codec.Record, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*codec.Record), args.Error(1)
}

func (m *MockTemplateStore) Exists(name string) bool {
	return m.Called(name).Bool(0)
}

func (m *MockTemplateStore) List(ctx context.Context) ([]filestore.TemplateInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]filestore.TemplateInfo), args.Error(1)
}

func (m *MockTemplateStore) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

type MockDefaultsStore struct {
	mock.Mock
}

func (m *MockDefaultsStore) Save(ctx context.Context, a *domain.Act) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockDefaultsStore) Load(ctx context.Context) (*domain.Act, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Act), args.Error(1)
}

// =============================================================================
// Fixtures
// =============================================================================

func sampleAct() *domain.Act {
	a := domain.New()
	a.Number = "PNA-2025-001"
	a.Date = "2025-01-15"
	a.Acceptor = domain.Party{Name: "SIA Pieņēmējs", RegistrationNumber: "40003000001"}
	a.Transferor = domain.Party{Name: "SIA Nodevējs", RegistrationNumber: "40003000002"}
	a.AddItem(domain.NewLineItem("Konsultācijas", "2", "st.", "50.00"))
	a.AddItem(domain.NewLineItem("Uzstādīšana", "1", "gab.", "120.50"))
	return a
}
