// Package act orchestrates the act pipeline: compose, resolve the style
// sheet, render, rasterize previews, store exports and keep the template,
// project and defaults files.
package act

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/export"
	"github.com/actdesk/backend/internal/domain/layout"
	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/cache"
	"github.com/actdesk/backend/internal/infrastructure/logger"
	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
	"github.com/actdesk/backend/internal/infrastructure/printing"
	"github.com/actdesk/backend/internal/infrastructure/storage"
	"github.com/actdesk/backend/internal/infrastructure/telemetry"
)

const defaultPreviewDPI = 96

// RenderOption configures a RenderService
type RenderOption func(*RenderService)

// WithRasterizer sets the preview rasterizer, usually a printing.RasterChain
func WithRasterizer(r printing.Rasterizer) RenderOption {
	return func(s *RenderService) {
		s.rasterizer = r
	}
}

// WithPreviewCache sets the preview cache
func WithPreviewCache(c cache.PreviewCache) RenderOption {
	return func(s *RenderService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithExportStorage sets where exports are stored; backend names it in metrics
func WithExportStorage(st storage.DocumentStorage, backend string) RenderOption {
	return func(s *RenderService) {
		s.storage = st
		s.storageBackend = backend
	}
}

// WithExportHistory sets the export history repository
func WithExportHistory(repo export.Repository) RenderOption {
	return func(s *RenderService) {
		s.exports = repo
	}
}

// WithAddressBook makes exports remember both parties
func WithAddressBook(book *AddressBookService) RenderOption {
	return func(s *RenderService) {
		s.addressBook = book
	}
}

// WithRenderMetrics sets the render instruments
func WithRenderMetrics(m *telemetry.RenderMetrics) RenderOption {
	return func(s *RenderService) {
		s.metrics = m
	}
}

// WithLayoutOptions passes options to layout.Resolve
func WithLayoutOptions(opts ...layout.Option) RenderOption {
	return func(s *RenderService) {
		s.layoutOpts = append(s.layoutOpts, opts...)
	}
}

// WithClock sets the clock used for generation timestamps
func WithClock(now func() time.Time) RenderOption {
	return func(s *RenderService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPreviewDPI sets the preview resolution
func WithPreviewDPI(dpi int) RenderOption {
	return func(s *RenderService) {
		if dpi > 0 {
			s.previewDPI = dpi
		}
	}
}

// WithRenderLogger sets the logger
func WithRenderLogger(l *zap.Logger) RenderOption {
	return func(s *RenderService) {
		if l != nil {
			s.logger = l
		}
	}
}

// RenderService turns acts into documents, previews and stored exports
type RenderService struct {
	renderers      map[printing.Format]printing.Renderer
	rasterizer     printing.Rasterizer
	cache          cache.PreviewCache
	storage        storage.DocumentStorage
	storageBackend string
	exports        export.Repository
	addressBook    *AddressBookService
	metrics        *telemetry.RenderMetrics
	layoutOpts     []layout.Option
	now            func() time.Time
	previewDPI     int
	logger         *zap.Logger
}

// NewRenderService creates a RenderService over the given renderers. A
// later renderer for the same format replaces an earlier one.
func NewRenderService(renderers []printing.Renderer, opts ...RenderOption) *RenderService {
	s := &RenderService{
		renderers:  make(map[printing.Format]printing.Renderer, len(renderers)),
		cache:      cache.NopPreviewCache{},
		now:        time.Now,
		previewDPI: defaultPreviewDPI,
		logger:     zap.NewNop(),
	}
	for _, r := range renderers {
		if r != nil {
			s.renderers[r.Format()] = r
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Formats lists the formats this service can render
func (s *RenderService) Formats() []printing.Format {
	formats := make([]printing.Format, 0, len(s.renderers))
	for _, f := range []printing.Format{printing.FormatPDF, printing.FormatDOCX, printing.FormatHTML} {
		if _, ok := s.renderers[f]; ok {
			formats = append(formats, f)
		}
	}
	return formats
}

// RasterizerName names the preview backend, or "" when previews are off
func (s *RenderService) RasterizerName() string {
	if s.rasterizer == nil {
		return ""
	}
	return s.rasterizer.Name()
}

// Totals computes the money summary of a
func (s *RenderService) Totals(a *domain.Act) *TotalsResponse {
	return toTotalsResponse(a)
}

// request builds the renderer input: every business decision in the
// composition, every geometry decision in the style sheet
func (s *RenderService) request(a *domain.Act) *printing.RenderRequest {
	return &printing.RenderRequest{
		Document: domain.Compose(a, domain.ComposeOptions{Now: s.now()}),
		Style:    layout.Resolve(a, s.layoutOpts...),
	}
}

// Render lays out a in format
func (s *RenderService) Render(ctx context.Context, a *domain.Act, format printing.Format) (*printing.RenderResult, error) {
	if a == nil {
		return nil, shared.ErrInvalidInput.WithMessage("act is required")
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, printing.NewRenderError(printing.ErrCodeUnsupportedFormat,
			fmt.Sprintf("format %q is not supported", format), nil)
	}

	ctx, span := telemetry.StartSpan(ctx, "RenderService", "Render",
		telemetry.SpanActNumber.String(a.Number),
		telemetry.SpanFormat.String(string(format)),
		telemetry.SpanItems.Int(len(a.Items)),
	)
	defer span.End()
	ctx = logger.WithActNumber(ctx, a.Number)

	start := time.Now()
	result, err := renderer.Render(ctx, s.request(a))
	if err != nil {
		s.metrics.RecordRender(ctx, string(format), time.Since(start), 0, 0, err)
		telemetry.Fail(span, err)
		s.log(ctx).Warn("render failed", zap.String("format", string(format)), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordRender(ctx, string(format), result.RenderDuration, len(result.Content), len(result.Warnings), nil)
	span.SetAttributes(telemetry.SpanPages.Int(result.PageCount), telemetry.SpanBytes.Int(len(result.Content)))
	for _, w := range result.Warnings {
		telemetry.Warn(span, w)
	}
	s.log(ctx).Debug("act rendered",
		zap.String("format", string(format)),
		zap.Int("pages", result.PageCount),
		zap.Int("bytes", len(result.Content)),
		zap.Strings("warnings", result.Warnings))
	return result, nil
}

// log prefers the request logger over the service one
func (s *RenderService) log(ctx context.Context) *zap.Logger {
	if l, ok := logger.FromContext(ctx); ok {
		return l
	}
	return logger.Enrich(ctx, s.logger)
}

// Preview returns page (1-based) of the PDF rendering of a as PNG. Pages are
// cached by the encoded record, so an unchanged act is not rendered again.
func (s *RenderService) Preview(ctx context.Context, a *domain.Act, page int) (*PreviewOutput, error) {
	if a == nil {
		return nil, shared.ErrInvalidInput.WithMessage("act is required")
	}
	if page < 1 {
		page = 1
	}
	if s.rasterizer == nil {
		err := printing.NewRenderError(printing.ErrCodeRasterizerUnavailable, "no page rasterizer is configured", nil)
		s.metrics.RecordPreview(ctx, "none", false, err)
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "RenderService", "Preview",
		telemetry.SpanActNumber.String(a.Number),
		telemetry.SpanPage.Int(page),
	)
	defer span.End()

	key := s.previewKey(a, page)
	if key != "" {
		if data, ok, err := s.cache.Get(ctx, key); err != nil {
			s.logger.Warn("preview cache read failed", zap.Error(err))
		} else if ok {
			if out, ok := decodePreview(data); ok {
				out.Page = page
				out.CacheHit = true
				out.Rasterizer = s.rasterizer.Name()
				span.SetAttributes(telemetry.SpanCacheHit.Bool(true))
				s.metrics.RecordPreview(ctx, s.rasterizer.Name(), true, nil)
				return out, nil
			}
		}
	}
	span.SetAttributes(telemetry.SpanCacheHit.Bool(false))

	src, pages, err := s.rasterSource(ctx, a)
	if err != nil {
		telemetry.Fail(span, err)
		s.metrics.RecordPreview(ctx, s.rasterizer.Name(), false, err)
		return nil, err
	}
	if page > pages {
		err := shared.ErrInvalidInput.Withf("page %d is out of range, the act has %d", page, pages)
		s.metrics.RecordPreview(ctx, s.rasterizer.Name(), false, err)
		return nil, err
	}

	png, err := s.rasterizer.Rasterize(ctx, src, page, s.previewDPI)
	s.metrics.RecordPreview(ctx, s.rasterizer.Name(), false, err)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	span.SetAttributes(telemetry.SpanRasterizer.String(s.rasterizer.Name()), telemetry.SpanPages.Int(pages))

	if key != "" {
		if err := s.cache.Set(ctx, key, encodePreview(pages, png)); err != nil {
			s.logger.Warn("preview cache write failed", zap.Error(err))
		}
	}
	return &PreviewOutput{Image: png, Page: page, PageCount: pages, Rasterizer: s.rasterizer.Name()}, nil
}

// rasterSource renders the PDF and, when available, the HTML form that
// browser rasterizers draw from
func (s *RenderService) rasterSource(ctx context.Context, a *domain.Act) (*printing.RasterSource, int, error) {
	pdf, err := s.Render(ctx, a, printing.FormatPDF)
	if err != nil {
		return nil, 0, err
	}
	style := layout.Resolve(a, s.layoutOpts...)
	src := &printing.RasterSource{
		PDF:          pdf.Content,
		PageWidthMM:  style.Page.Width,
		PageHeightMM: style.Page.Height,
	}
	if _, ok := s.renderers[printing.FormatHTML]; ok {
		html, err := s.Render(ctx, a, printing.FormatHTML)
		if err != nil {
			s.logger.Debug("html preview source unavailable", zap.Error(err))
		} else {
			src.HTML = html.Content
		}
	}
	pages := pdf.PageCount
	if pages < 1 {
		pages = 1
	}
	return src, pages, nil
}

// previewKey covers the generation stamp too, so a preview is not reused
// once the minute it shows has passed
func (s *RenderService) previewKey(a *domain.Act, page int) string {
	record, err := codec.Marshal(a)
	if err != nil {
		return ""
	}
	if stamp := domain.GeneratedStamp(a, s.now()); stamp != "" {
		record = append(append(record, 0), stamp...)
	}
	return cache.PreviewKey(record, string(printing.FormatPDF), page, s.previewDPI)
}

// encodePreview prefixes the PNG with the page count so cache hits can
// report it without rendering
func encodePreview(pages int, png []byte) []byte {
	out := make([]byte, 4+len(png))
	binary.BigEndian.PutUint32(out, uint32(pages))
	copy(out[4:], png)
	return out
}

func decodePreview(data []byte) (*PreviewOutput, bool) {
	if len(data) < 5 {
		return nil, false
	}
	return &PreviewOutput{
		PageCount: int(binary.BigEndian.Uint32(data)),
		Image:     data[4:],
	}, true
}

// Export renders a, stores the document, records it in the history and
// remembers both parties in the address book. Failures after the document
// is stored are reported as warnings.
func (s *RenderService) Export(ctx context.Context, a *domain.Act, format printing.Format) (*ExportResponse, error) {
	if s.storage == nil {
		return nil, shared.ErrInvalidState.WithMessage("export storage is not configured")
	}

	ctx, span := telemetry.StartSpan(ctx, "RenderService", "Export", telemetry.SpanFormat.String(string(format)))
	defer span.End()

	result, err := s.Render(ctx, a, format)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}

	record := export.NewRecord(a, string(format))
	record.PageCount = result.PageCount
	record.Warnings = append([]string(nil), result.Warnings...)

	stored, err := s.storage.Store(ctx, &storage.StoreRequest{
		ExportID:    record.ID,
		Extension:   format.Extension(),
		ContentType: format.ContentType(),
		Data:        result.Content,
		CreatedAt:   record.CreatedAt,
	})
	if err != nil {
		err = printing.NewRenderError(printing.ErrCodeStorageFailed, "failed to store exported document", err)
		telemetry.Fail(span, err)
		s.metrics.RecordExport(ctx, string(format), s.storageBackend, err)
		return nil, err
	}
	record.Stored(stored.Key, stored.URL, format.ContentType(), stored.Size)
	span.SetAttributes(telemetry.SpanStorageKey.String(stored.Key))

	if s.addressBook != nil {
		if err := s.addressBook.Remember(ctx, a.Acceptor, a.Transferor); err != nil {
			s.logger.Warn("address book update failed", zap.Error(err))
			record.Warnings = append(record.Warnings, "address book was not updated")
		}
	}

	if s.exports != nil {
		if err := s.exports.Save(ctx, record); err != nil {
			s.metrics.RecordExport(ctx, string(format), s.storageBackend, err)
			return nil, fmt.Errorf("failed to save export record: %w", err)
		}
	}
	s.metrics.RecordExport(ctx, string(format), s.storageBackend, nil)

	s.logger.Info("act exported",
		zap.String("export_id", record.ID.String()),
		zap.String("act_number", record.ActNumber),
		zap.String("format", record.Format),
		zap.String("key", record.StorageKey),
		zap.Int64("size", record.Size))

	resp := toExportResponse(record)
	return &resp, nil
}

// ListExports returns one page of the export history, newest first
func (s *RenderService) ListExports(ctx context.Context, req ListExportsRequest) (*ListExportsResponse, error) {
	if s.exports == nil {
		return &ListExportsResponse{Items: []ExportResponse{}, Page: 1}, nil
	}
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  map[string]interface{}{},
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if req.Format != "" {
		filter.Filters["format"] = req.Format
	}
	if req.ActNumber != "" {
		filter.Filters["act_number"] = req.ActNumber
	}

	records, total, err := s.exports.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	items := make([]ExportResponse, len(records))
	for i := range records {
		items[i] = toExportResponse(&records[i])
	}
	return &ListExportsResponse{Items: items, Total: total, Page: filter.Page, Size: filter.PageSize}, nil
}

// GetExport returns one export record
func (s *RenderService) GetExport(ctx context.Context, id uuid.UUID) (*ExportResponse, error) {
	if s.exports == nil {
		return nil, shared.ErrNotFound
	}
	record, err := s.exports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toExportResponse(record)
	return &resp, nil
}

// OpenExport opens the stored document of an export. The caller closes it.
func (s *RenderService) OpenExport(ctx context.Context, id uuid.UUID) (*ExportResponse, io.ReadCloser, error) {
	resp, err := s.GetExport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.storage == nil {
		return nil, nil, shared.ErrInvalidState.WithMessage("export storage is not configured")
	}
	rc, err := s.storage.Get(ctx, resp.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, shared.ErrNotFound.WithMessage("stored document no longer exists")
		}
		return nil, nil, fmt.Errorf("failed to open export: %w", err)
	}
	return resp, rc, nil
}

// OpenStored opens a stored document by its storage key, as served under
// the local storage base URL
func (s *RenderService) OpenStored(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, shared.ErrInvalidState.WithMessage("export storage is not configured")
	}
	rc, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, shared.ErrNotFound.WithMessage("stored document not found")
		}
		return nil, fmt.Errorf("failed to open stored document: %w", err)
	}
	return rc, nil
}
