package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of spans started here
const TracerName = "actdesk"

// Span attribute keys set by the act services
var (
	SpanActNumber  = attribute.Key("act.number")
	SpanItems      = attribute.Key("act.items")
	SpanFormat     = attribute.Key("document.format")
	SpanPages      = attribute.Key("document.pages")
	SpanBytes      = attribute.Key("document.bytes")
	SpanPage       = attribute.Key("preview.page")
	SpanCacheHit   = attribute.Key("preview.cache_hit")
	SpanRasterizer = attribute.Key("preview.rasterizer")
	SpanTemplate   = attribute.Key("template.name")
	SpanStorageKey = attribute.Key("storage.key")
)

// StartSpan starts an internal span named component.operation on the
// global tracer provider. The caller ends it.
//
//	ctx, span := telemetry.StartSpan(ctx, "RenderService", "Render", telemetry.SpanFormat.String("pdf"))
//	defer span.End()
func StartSpan(ctx context.Context, component, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, component+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// Fail records err on span and marks the span failed. A nil err is ignored.
func Fail(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Warn adds a warning event carrying message
func Warn(span trace.Span, message string) {
	if span == nil {
		return
	}
	span.AddEvent("warning", trace.WithAttributes(attribute.String("message", message)))
}
