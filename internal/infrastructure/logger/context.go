package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// scope is what a request context carries for logging. The logger is kept
// without the scope fields; they are added when it is taken out.
type scope struct {
	logger    *zap.Logger
	requestID string
	actNumber string
}

type scopeKey struct{}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, update func(*scope)) context.Context {
	s := scopeOf(ctx)
	update(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// Into attaches l to ctx as the logger of the request
func Into(ctx context.Context, l *zap.Logger) context.Context {
	return withScope(ctx, func(s *scope) { s.logger = l })
}

// WithRequestID tags every later log line taken from ctx with id
func WithRequestID(ctx context.Context, id string) context.Context {
	return withScope(ctx, func(s *scope) { s.requestID = id })
}

// WithActNumber tags every later log line taken from ctx with the number of
// the act being rendered or exported
func WithActNumber(ctx context.Context, number string) context.Context {
	return withScope(ctx, func(s *scope) { s.actNumber = number })
}

// RequestID returns the request ID carried by ctx
func RequestID(ctx context.Context) string {
	return scopeOf(ctx).requestID
}

// ActNumber returns the act number carried by ctx
func ActNumber(ctx context.Context) string {
	return scopeOf(ctx).actNumber
}

// FromContext returns the request logger with the scope and trace fields
// of ctx. ok is false when no logger was attached.
func FromContext(ctx context.Context) (l *zap.Logger, ok bool) {
	s := scopeOf(ctx)
	if s.logger == nil {
		return nil, false
	}
	return Enrich(ctx, s.logger), true
}

// L returns the request logger of ctx, or a no-op logger.
//
//	logger.L(ctx).Info("act rendered", zap.Int("pages", n))
func L(ctx context.Context) *zap.Logger {
	if l, ok := FromContext(ctx); ok {
		return l
	}
	return zap.NewNop()
}

// Enrich adds the request ID, act number and active span of ctx to base
func Enrich(ctx context.Context, base *zap.Logger) *zap.Logger {
	fields := TraceFields(ctx)
	s := scopeOf(ctx)
	if s.requestID != "" {
		fields = append(fields, zap.String("request_id", s.requestID))
	}
	if s.actNumber != "" {
		fields = append(fields, zap.String("act_number", s.actNumber))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// TraceFields returns trace_id and span_id of the active span, or nothing
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
