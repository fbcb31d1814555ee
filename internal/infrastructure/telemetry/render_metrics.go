package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/actdesk/backend/internal/domain/shared"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// RenderMetrics counts renders, previews and exports
type RenderMetrics struct {
	renders        metric.Int64Counter
	renderDuration metric.Float64Histogram
	documentSize   metric.Float64Histogram
	warnings       metric.Int64Counter
	previews       metric.Int64Counter
	exports        metric.Int64Counter
}

// NewRenderMetrics registers the render instruments on meter
func NewRenderMetrics(meter metric.Meter) (*RenderMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	in := NewInstruments(meter)
	m := &RenderMetrics{
		renders:        in.Counter("actdesk.render.total", "Documents rendered", "{document}"),
		renderDuration: in.Histogram("actdesk.render.duration", "Time spent rendering one document", "s", RenderDurationBuckets),
		documentSize:   in.Histogram("actdesk.render.size", "Rendered document size", "By", DocumentSizeBuckets),
		warnings:       in.Counter("actdesk.render.warnings", "Non-fatal render problems", "{warning}"),
		previews:       in.Counter("actdesk.preview.total", "Preview pages served", "{page}"),
		exports:        in.Counter("actdesk.export.total", "Documents exported to storage", "{document}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRender records one render attempt. A nil receiver records nothing.
func (m *RenderMetrics) RecordRender(ctx context.Context, format string, d time.Duration, size int, warnings int, err error) {
	if m == nil {
		return
	}
	attrs := outcomeAttrs(format, err)
	m.renders.Add(ctx, 1, metric.WithAttributes(attrs...))
	Seconds(ctx, m.renderDuration, d, attrs...)
	byFormat := metric.WithAttributes(AttrFormat.String(format))
	if err == nil {
		m.documentSize.Record(ctx, float64(size), byFormat)
	}
	if warnings > 0 {
		m.warnings.Add(ctx, int64(warnings), byFormat)
	}
}

// RecordPreview records one preview page
func (m *RenderMetrics) RecordPreview(ctx context.Context, rasterizer string, cacheHit bool, err error) {
	if m == nil {
		return
	}
	attrs := append(outcomeAttrs("png", err), AttrRasterizer.String(rasterizer), AttrCacheHit.Bool(cacheHit))
	m.previews.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordExport records one stored export
func (m *RenderMetrics) RecordExport(ctx context.Context, format, backend string, err error) {
	if m == nil {
		return
	}
	attrs := append(outcomeAttrs(format, err), AttrStorage.String(backend))
	m.exports.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func outcomeAttrs(format string, err error) []attribute.KeyValue {
	if err == nil {
		return []attribute.KeyValue{AttrFormat.String(format), AttrOutcome.String("ok")}
	}
	code := "INTERNAL"
	var coded interface{ ErrorCode() string }
	var domainErr *shared.DomainError
	switch {
	case errors.As(err, &domainErr):
		code = domainErr.Code
	case errors.As(err, &coded):
		code = coded.ErrorCode()
	}
	return []attribute.KeyValue{AttrFormat.String(format), AttrOutcome.String("error"), AttrErrorCode.String(code)}
}
