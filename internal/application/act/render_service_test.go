package act_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/actdesk/backend/internal/application/act"
	"github.com/actdesk/backend/internal/domain/addressbook"
	"github.com/actdesk/backend/internal/domain/export"
	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/cache"
	"github.com/actdesk/backend/internal/infrastructure/printing"
	"github.com/actdesk/backend/internal/infrastructure/storage"
)

var fixedNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func newPDFRenderer(result *printing.RenderResult, err error) *MockRenderer {
	r := &MockRenderer{format: printing.FormatPDF}
	r.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).Return(result, err)
	return r
}

func pdfResult(pages int) *printing.RenderResult {
	return &printing.RenderResult{
		Content:        []byte("%PDF-1.7 test"),
		Format:         printing.FormatPDF,
		PageCount:      pages,
		RenderDuration: time.Millisecond,
	}
}

func TestRenderService_Totals(t *testing.T) {
	svc := act.NewRenderService(nil)
	a := sampleAct()

	totals := svc.Totals(a)
	assert.Equal(t, "220.50", totals.Subtotal)
	assert.Equal(t, "0.00", totals.VAT)
	assert.Equal(t, "220.50", totals.Grand)
	assert.Equal(t, 2, totals.ItemCount)

	a.VAT.Include = true
	totals = svc.Totals(a)
	assert.Equal(t, "46.30", totals.VAT)
	assert.Equal(t, "266.80", totals.Grand)
	assert.True(t, totals.IncludeVAT)
}

func TestRenderService_Formats(t *testing.T) {
	svc := act.NewRenderService([]printing.Renderer{
		&MockRenderer{format: printing.FormatHTML},
		&MockRenderer{format: printing.FormatPDF},
		nil,
	})
	assert.Equal(t, []printing.Format{printing.FormatPDF, printing.FormatHTML}, svc.Formats())
}

func TestRenderService_Render(t *testing.T) {
	t.Run("passes composition and style to the renderer", func(t *testing.T) {
		renderer := newPDFRenderer(pdfResult(2), nil)
		svc := act.NewRenderService([]printing.Renderer{renderer}, act.WithClock(func() time.Time { return fixedNow }))

		a := sampleAct()
		a.Output.ShowGeneratedAt = true
		result, err := svc.Render(context.Background(), a, printing.FormatPDF)
		require.NoError(t, err)
		assert.Equal(t, 2, result.PageCount)

		req := renderer.Calls[0].Arguments.Get(1).(*printing.RenderRequest)
		require.NotNil(t, req.Document)
		require.NotNil(t, req.Style)
		assert.Contains(t, req.Document.GeneratedAt, "10:30")
	})

	t.Run("unsupported format", func(t *testing.T) {
		svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(pdfResult(1), nil)})

		_, err := svc.Render(context.Background(), sampleAct(), printing.FormatDOCX)
		var renderErr *printing.RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, printing.ErrCodeUnsupportedFormat, renderErr.Code)
	})

	t.Run("nil act", func(t *testing.T) {
		svc := act.NewRenderService(nil)
		_, err := svc.Render(context.Background(), nil, printing.FormatPDF)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("renderer error is returned", func(t *testing.T) {
		failure := printing.NewRenderError(printing.ErrCodeRenderFailed, "boom", nil)
		svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(nil, failure)})

		_, err := svc.Render(context.Background(), sampleAct(), printing.FormatPDF)
		assert.ErrorIs(t, err, failure)
	})
}

func TestRenderService_Preview(t *testing.T) {
	ctx := context.Background()

	t.Run("no rasterizer", func(t *testing.T) {
		svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(pdfResult(1), nil)})

		_, err := svc.Preview(ctx, sampleAct(), 1)
		var renderErr *printing.RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, printing.ErrCodeRasterizerUnavailable, renderErr.Code)
	})

	t.Run("second request is served from cache", func(t *testing.T) {
		renderer := newPDFRenderer(pdfResult(3), nil)
		rasterizer := new(MockRasterizer)
		rasterizer.On("Rasterize", mock.Anything, mock.Anything, 2, 150).Return([]byte("png-page-2"), nil).Once()
		previews := cache.NewInMemoryPreviewCache(time.Minute, 10)
		t.Cleanup(func() { _ = previews.Close() })

		svc := act.NewRenderService([]printing.Renderer{renderer},
			act.WithRasterizer(rasterizer),
			act.WithPreviewCache(previews),
			act.WithPreviewDPI(150),
		)
		a := sampleAct()

		first, err := svc.Preview(ctx, a, 2)
		require.NoError(t, err)
		assert.False(t, first.CacheHit)
		assert.Equal(t, []byte("png-page-2"), first.Image)
		assert.Equal(t, 3, first.PageCount)

		second, err := svc.Preview(ctx, a, 2)
		require.NoError(t, err)
		assert.True(t, second.CacheHit)
		assert.Equal(t, []byte("png-page-2"), second.Image)
		assert.Equal(t, 3, second.PageCount)
		assert.Equal(t, "mock", second.Rasterizer)

		rasterizer.AssertExpectations(t)
		renderer.AssertNumberOfCalls(t, "Render", 1)
	})

	t.Run("generation stamp is part of the key", func(t *testing.T) {
		renderer := newPDFRenderer(pdfResult(1), nil)
		rasterizer := new(MockRasterizer)
		rasterizer.On("Rasterize", mock.Anything, mock.Anything, 1, 96).Return([]byte("png"), nil).Twice()
		previews := cache.NewInMemoryPreviewCache(time.Minute, 10)
		t.Cleanup(func() { _ = previews.Close() })

		now := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
		svc := act.NewRenderService([]printing.Renderer{renderer},
			act.WithRasterizer(rasterizer),
			act.WithPreviewCache(previews),
			act.WithClock(func() time.Time { return now }),
		)
		a := sampleAct()
		a.Output.ShowGeneratedAt = true

		first, err := svc.Preview(ctx, a, 1)
		require.NoError(t, err)
		assert.False(t, first.CacheHit)

		now = now.Add(30 * time.Second)
		same, err := svc.Preview(ctx, a, 1)
		require.NoError(t, err)
		assert.True(t, same.CacheHit)

		now = now.Add(time.Minute)
		later, err := svc.Preview(ctx, a, 1)
		require.NoError(t, err)
		assert.False(t, later.CacheHit)

		rasterizer.AssertExpectations(t)
		renderer.AssertNumberOfCalls(t, "Render", 2)
	})

	t.Run("raster source carries page size", func(t *testing.T) {
		rasterizer := new(MockRasterizer)
		rasterizer.On("Rasterize", mock.Anything, mock.Anything, 1, 96).Return([]byte("png"), nil)
		svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(pdfResult(1), nil)}, act.WithRasterizer(rasterizer))

		_, err := svc.Preview(ctx, sampleAct(), 0)
		require.NoError(t, err)

		src := rasterizer.Calls[0].Arguments.Get(1).(*printing.RasterSource)
		assert.InDelta(t, 210.0, src.PageWidthMM, 0.01)
		assert.InDelta(t, 297.0, src.PageHeightMM, 0.01)
		assert.NotEmpty(t, src.PDF)
		assert.Empty(t, src.HTML)
	})

	t.Run("page out of range", func(t *testing.T) {
		rasterizer := new(MockRasterizer)
		svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(pdfResult(1), nil)}, act.WithRasterizer(rasterizer))

		_, err := svc.Preview(ctx, sampleAct(), 4)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		rasterizer.AssertNotCalled(t, "Rasterize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rasterizer failure", func(t *testing.T) {
		failure := printing.NewRenderError(printing.ErrCodeRasterizerUnavailable, "no backend", nil)
		rasterizer := new(MockRasterizer)
		rasterizer.On("Rasterize", mock.Anything, mock.Anything, 1, 96).Return(nil, failure)
		svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(pdfResult(1), nil)}, act.WithRasterizer(rasterizer))

		_, err := svc.Preview(ctx, sampleAct(), 1)
		assert.ErrorIs(t, err, failure)
	})
}

func TestRenderService_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("stores, records and remembers parties", func(t *testing.T) {
		st := new(MockDocumentStorage)
		st.On("Store", mock.Anything, mock.MatchedBy(func(req *storage.StoreRequest) bool {
			return req.Extension == ".pdf" && req.ContentType == "application/pdf" && len(req.Data) > 0
		})).Return(&storage.StoreResult{Key: "2025/01/x.pdf", URL: "/files/2025/01/x.pdf", Size: 13}, nil)

		exports := new(MockExportRepository)
		exports.On("Save", mock.Anything, mock.AnythingOfType("*export.Record")).Return(nil)

		book := new(MockAddressBookRepository)
		book.On("FindByKey", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
		book.On("Save", mock.Anything, mock.AnythingOfType("*addressbook.Entry")).Return(nil)

		svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(pdfResult(2), nil)},
			act.WithExportStorage(st, "filesystem"),
			act.WithExportHistory(exports),
			act.WithAddressBook(act.NewAddressBookService(book, nil)),
		)

		resp, err := svc.Export(ctx, sampleAct(), printing.FormatPDF)
		require.NoError(t, err)
		assert.Equal(t, "PNA-2025-001", resp.ActNumber)
		assert.Equal(t, "2025/01/x.pdf", resp.StorageKey)
		assert.Equal(t, "/files/2025/01/x.pdf", resp.URL)
		assert.Equal(t, "pdf", resp.Format)
		assert.Equal(t, 2, resp.PageCount)
		assert.Equal(t, "220.50", resp.GrandTotal)
		assert.Empty(t, resp.Warnings)

		saved := exports.Calls[0].Arguments.Get(1).(*export.Record)
		assert.Equal(t, "SIA Pieņēmējs", saved.Acceptor)
		book.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("address book failure becomes a warning", func(t *testing.T) {
		st := new(MockDocumentStorage)
		st.On("Store", mock.Anything, mock.Anything).Return(&storage.StoreResult{Key: "k.pdf", Size: 1}, nil)
		exports := new(MockExportRepository)
		exports.On("Save", mock.Anything, mock.Anything).Return(nil)
		book := new(MockAddressBookRepository)
		book.On("FindByKey", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(pdfResult(1), nil)},
			act.WithExportStorage(st, "filesystem"),
			act.WithExportHistory(exports),
			act.WithAddressBook(act.NewAddressBookService(book, nil)),
		)

		resp, err := svc.Export(ctx, sampleAct(), printing.FormatPDF)
		require.NoError(t, err)
		assert.Contains(t, resp.Warnings, "address book was not updated")
	})

	t.Run("storage failure", func(t *testing.T) {
		st := new(MockDocumentStorage)
		st.On("Store", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))
		exports := new(MockExportRepository)

		svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(pdfResult(1), nil)},
			act.WithExportStorage(st, "filesystem"),
			act.WithExportHistory(exports),
		)

		_, err := svc.Export(ctx, sampleAct(), printing.FormatPDF)
		var renderErr *printing.RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, printing.ErrCodeStorageFailed, renderErr.Code)
		exports.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("without storage", func(t *testing.T) {
		svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(pdfResult(1), nil)})
		_, err := svc.Export(ctx, sampleAct(), printing.FormatPDF)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestRenderService_ListExports(t *testing.T) {
	exports := new(MockExportRepository)
	a := sampleAct()
	record := export.NewRecord(a, "docx")
	record.Stored("2025/01/r.docx", "/files/2025/01/r.docx", printing.FormatDOCX.ContentType(), 99)

	exports.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.Filters["format"] == "docx" && f.Search == "PNA"
	})).Return([]export.Record{*record}, int64(1), nil)

	svc := act.NewRenderService(nil, act.WithExportHistory(exports))
	resp, err := svc.ListExports(context.Background(), act.ListExportsRequest{Format: "docx", Search: "PNA"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, record.ID.String(), resp.Items[0].ID)
	assert.Equal(t, []string{}, resp.Items[0].Warnings)
}

func TestRenderService_OpenExport(t *testing.T) {
	ctx := context.Background()
	record := export.NewRecord(sampleAct(), "pdf")
	record.Stored("2025/01/r.pdf", "", "application/pdf", 4)

	exports := new(MockExportRepository)
	exports.On("FindByID", mock.Anything, record.ID).Return(record, nil)
	exports.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)

	st := new(MockDocumentStorage)
	st.On("Get", mock.Anything, "2025/01/r.pdf").Return(io.NopCloser(strings.NewReader("%PDF")), nil)

	svc := act.NewRenderService(nil, act.WithExportHistory(exports), act.WithExportStorage(st, "filesystem"))

	resp, rc, err := svc.OpenExport(ctx, record.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
	assert.Equal(t, "application/pdf", resp.ContentType)

	_, _, err = svc.OpenExport(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRenderService_ExportToFileSystem(t *testing.T) {
	fs, err := storage.NewFileSystemStorage(&storage.FileSystemStorageConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	book := new(MockAddressBookRepository)
	existing, err := addressbook.NewEntry(sampleAct().Acceptor)
	require.NoError(t, err)
	book.On("FindByKey", mock.Anything, existing.Key()).Return(existing, nil)
	book.On("FindByKey", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
	book.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc := act.NewRenderService([]printing.Renderer{newPDFRenderer(pdfResult(1), nil)},
		act.WithExportStorage(fs, "filesystem"),
		act.WithAddressBook(act.NewAddressBookService(book, nil)),
	)
	resp, err := svc.Export(context.Background(), sampleAct(), printing.FormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.StorageKey, ".pdf"))
	assert.Equal(t, 1, existing.UseCount)

	rc, err := fs.Get(context.Background(), resp.StorageKey)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 test", string(data))
}
