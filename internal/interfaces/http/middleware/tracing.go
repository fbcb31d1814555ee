package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps request IDs copied from headers into spans
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// spanQueryParams are the query parameters copied onto the server span,
// with the longest value accepted for each
var spanQueryParams = []struct {
	param  string
	key    attribute.Key
	maxLen int
}{
	{"format", "act.format", 8},
	{"page", "act.page", 6},
}

// Tracing starts a server span per request through otelgin, named
// "METHOD route". SpanDecorator adds the request details to it.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return otelgin.Middleware(cfg.ServiceName)
}

func spanRequestID(c *gin.Context) string {
	id := RequestIDOf(c)
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}

// SpanDecorator tags the server span with the request ID, the act format and
// the preview page, then marks it failed for 4xx and 5xx responses. It must
// run after Tracing, while the span is still open.
func SpanDecorator() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := spanRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		for _, q := range spanQueryParams {
			if v := c.Query(q.param); v != "" && len(v) <= q.maxLen {
				span.SetAttributes(q.key.String(v))
			}
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
		if last := c.Errors.Last(); last != nil {
			span.SetAttributes(attribute.String("error.detail", last.Error()))
		}
	}
}
