package logger

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GinConfig configures the access log
type GinConfig struct {
	// SkipPaths are logged only when the response is an error, which keeps
	// health checks out of the log
	SkipPaths []string
}

// GinMiddleware logs one line per request with the default configuration
func GinMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return GinMiddlewareWithConfig(logger, GinConfig{})
}

// GinMiddlewareWithConfig logs one line per request. The request-scoped
// logger goes into the request context, so services reached from a handler
// log through L(ctx) with the request ID attached.
func GinMiddlewareWithConfig(logger *zap.Logger, cfg GinConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		ctx := Into(req.Context(), logger.With(
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		))
		if id := c.GetString("request_id"); id != "" {
			ctx = WithRequestID(ctx, id)
		}
		c.Request = req.WithContext(ctx)
		reqLogger := L(ctx)

		c.Next()

		status := c.Writer.Status()
		if _, ok := skip[req.URL.Path]; ok && status < http.StatusBadRequest {
			return
		}
		reqLogger.Log(statusLevel(status), "HTTP Request", accessFields(c, status, time.Since(start))...)
	}
}

func statusLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// accessFields collects the response facts worth a log line. Render and
// preview responses add the page count and the preview cache outcome.
func accessFields(c *gin.Context, status int, latency time.Duration) []zap.Field {
	h := c.Writer.Header()
	fields := []zap.Field{
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
		zap.Int("body_size", c.Writer.Size()),
	}
	optional := []struct{ key, value string }{
		{"query", c.Request.URL.RawQuery},
		{"user_agent", c.Request.UserAgent()},
		{"content_type", h.Get("Content-Type")},
		{"preview_cache", h.Get("X-Preview-Cache")},
	}
	for _, f := range optional {
		if f.value != "" {
			fields = append(fields, zap.String(f.key, f.value))
		}
	}
	if pages, err := strconv.Atoi(h.Get("X-Page-Count")); err == nil {
		fields = append(fields, zap.Int("pages", pages))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
	}
	return fields
}

// Recovery turns a panic in a handler into a logged 500 with the standard
// error envelope.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			requestID := c.GetString("request_id")
			logger.Error("Panic recovered",
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "INTERNAL_ERROR",
					"message":    "An internal error occurred",
					"request_id": requestID,
				},
			})
		}()
		c.Next()
	}
}
