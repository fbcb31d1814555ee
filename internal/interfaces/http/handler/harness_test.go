package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	actapp "github.com/actdesk/backend/internal/application/act"
	"github.com/actdesk/backend/internal/infrastructure/cache"
	"github.com/actdesk/backend/internal/infrastructure/persistence"
	"github.com/actdesk/backend/internal/infrastructure/persistence/filestore"
	"github.com/actdesk/backend/internal/infrastructure/persistence/models"
	"github.com/actdesk/backend/internal/infrastructure/printing"
	"github.com/actdesk/backend/internal/infrastructure/storage"
	"github.com/actdesk/backend/internal/interfaces/http/dto"
	"github.com/actdesk/backend/internal/interfaces/http/middleware"
	"github.com/actdesk/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// stubRenderer writes the format and act number, one page per two items
type stubRenderer struct {
	format printing.Format
	err    error
}

func (r stubRenderer) Format() printing.Format { return r.format }

func (r stubRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	pages := 1 + len(req.Document.Rows)/2
	return &printing.RenderResult{
		Content:   []byte(fmt.Sprintf("%s|%s", r.format, req.Document.Title)),
		Format:    r.format,
		PageCount: pages,
	}, nil
}

type stubRasterizer struct {
	calls *int
}

func (r stubRasterizer) Name() string { return "stub" }

func (r stubRasterizer) Rasterize(ctx context.Context, src *printing.RasterSource, page, dpi int) ([]byte, error) {
	*r.calls++
	return []byte(fmt.Sprintf("\x89PNG page %d", page)), nil
}

type testEnv struct {
	engine        *gin.Engine
	dir           string
	rasterCalls   int
	exportStorage *storage.FileSystemStorage
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.PartyModel{}, &models.ExportModel{}))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{dir: t.TempDir()}
	log := zap.NewNop()

	db := newTestDB(t)
	book := actapp.NewAddressBookService(persistence.NewGormAddressBookRepository(db), log)

	fs, err := storage.NewFileSystemStorage(&storage.FileSystemStorageConfig{
		BasePath: filepath.Join(env.dir, "exports"),
	})
	require.NoError(t, err)
	env.exportStorage = fs

	previews := cache.NewInMemoryPreviewCache(time.Minute, 16)
	t.Cleanup(func() { _ = previews.Close() })

	renders := actapp.NewRenderService(
		[]printing.Renderer{
			stubRenderer{format: printing.FormatPDF},
			stubRenderer{format: printing.FormatHTML},
		},
		actapp.WithRasterizer(stubRasterizer{calls: &env.rasterCalls}),
		actapp.WithPreviewCache(previews),
		actapp.WithExportStorage(fs, "local"),
		actapp.WithExportHistory(persistence.NewGormExportRepository(db)),
		actapp.WithAddressBook(book),
	)
	documents := actapp.NewDocumentService(
		filestore.NewProjectStore(filepath.Join(env.dir, "projects"), log),
		filestore.NewTemplateStore(filepath.Join(env.dir, "templates"), log),
		filestore.NewDefaultsStore(filepath.Join(env.dir, "defaults.json"), log),
		log,
	)

	documentHandler := NewDocumentHandler(documents)
	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.NewRouter(engine).
		Register(ActRoutes(NewActHandler(documents, renders))).
		Register(ProjectRoutes(documentHandler)).
		Register(TemplateRoutes(documentHandler)).
		Register(DefaultsRoutes(documentHandler)).
		Register(PartyRoutes(NewPartyHandler(book))).
		Register(ExportRoutes(NewExportHandler(renders))).
		Setup()

	env.engine = engine
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// decode unmarshals a success envelope's data into out
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success, w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

const sampleRecord = `{
	"akta_nr": "PNA-2025-001",
	"datums": "14.03.2025",
	"pieņēmējs": {"nosaukums": "SIA Pieņēmējs", "reģistrācijas_nr": "40003000001"},
	"nodevējs": {"nosaukums": "SIA Nodevējs", "reģistrācijas_nr": "40003000002"},
	"pozīcijas": [
		{"apraksts": "Montāžas darbi", "daudzums": "2", "vienība": "st", "cena": "50"},
		{"apraksts": "Materiāli", "daudzums": "1", "vienība": "kompl", "cena": "120.50"}
	],
	"valūta": "EUR",
	"pvn_likme": "21",
	"iekļaut_pvn": true
}`

func sampleJSON(t *testing.T) json.RawMessage {
	t.Helper()
	return json.RawMessage(sampleRecord)
}
