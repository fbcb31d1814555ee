package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// useRecorder installs a recording tracer provider for the duration of the test
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(kvs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestStartSpan(t *testing.T) {
	recorder := useRecorder(t)

	ctx, parent := StartSpan(context.Background(), "RenderService", "Export", SpanFormat.String("pdf"))
	_, child := StartSpan(ctx, "RenderService", "Render",
		SpanActNumber.String("PP-2025-001"),
		SpanItems.Int(3),
	)
	child.End()
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	render, export := spans[0], spans[1]

	assert.Equal(t, "RenderService.Render", render.Name())
	assert.Equal(t, "RenderService.Export", export.Name())
	assert.Equal(t, trace.SpanKindInternal, render.SpanKind())
	assert.Equal(t, export.SpanContext().SpanID(), render.Parent().SpanID())
	assert.Equal(t, TracerName, render.InstrumentationScope().Name)

	attrs := attrMap(render.Attributes())
	assert.Equal(t, "PP-2025-001", attrs[SpanActNumber].AsString())
	assert.EqualValues(t, 3, attrs[SpanItems].AsInt64())
	assert.Equal(t, "pdf", attrMap(export.Attributes())[SpanFormat].AsString())
}

func TestFail(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartSpan(context.Background(), "RenderService", "Preview")
	Fail(span, nil)
	Fail(span, errors.New("rasterizer exited with status 1"))
	span.End()

	ended := recorder.Ended()[0]
	assert.Equal(t, codes.Error, ended.Status().Code)
	assert.Equal(t, "rasterizer exited with status 1", ended.Status().Description)
	require.Len(t, ended.Events(), 1)
	assert.Equal(t, "exception", ended.Events()[0].Name)
}

func TestWarn(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartSpan(context.Background(), "RenderService", "Render")
	Warn(span, "logo could not be decoded")
	span.End()

	events := recorder.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "warning", events[0].Name)
	assert.Equal(t, "logo could not be decoded", attrMap(events[0].Attributes)["message"].AsString())
}

func TestHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		Fail(nil, errors.New("x"))
		Warn(nil, "x")
	})
}
