package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// accessLog serves one request through the access log and returns what it
// recorded
func accessLog(t *testing.T, cfg GinConfig, req *http.Request, handler gin.HandlerFunc) (*httptest.ResponseRecorder, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Request-ID"); id != "" {
			c.Set("request_id", id)
		}
		c.Next()
	})
	engine.Use(GinMiddlewareWithConfig(zap.New(core), cfg))
	engine.Handle(req.Method, req.URL.Path, handler)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w, recorded
}

func TestGinMiddleware_StatusLevels(t *testing.T) {
	tests := []struct {
		status int
		want   zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusCreated, zapcore.InfoLevel},
		{http.StatusBadRequest, zapcore.WarnLevel},
		{http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
		{http.StatusServiceUnavailable, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/acts/totals", nil)
			_, recorded := accessLog(t, GinConfig{}, req, func(c *gin.Context) { c.Status(tt.status) })

			entries := recorded.FilterMessage("HTTP Request").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level)
			assert.EqualValues(t, tt.status, entries[0].ContextMap()["status"])
		})
	}
}

func TestGinMiddleware_Fields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/acts/preview?page=2", nil)
	req.Header.Set("User-Agent", "actctl/1.0")
	req.Header.Set("X-Request-ID", "req-77")

	_, recorded := accessLog(t, GinConfig{}, req, func(c *gin.Context) {
		c.Header("X-Page-Count", "3")
		c.Header("X-Preview-Cache", "hit")
		c.Data(http.StatusOK, "image/png", []byte{0x89, 'P', 'N', 'G'})
	})

	entries := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()

	assert.Equal(t, http.MethodPost, fields["method"])
	assert.Equal(t, "/api/v1/acts/preview", fields["path"])
	assert.Equal(t, "page=2", fields["query"])
	assert.Equal(t, "actctl/1.0", fields["user_agent"])
	assert.Equal(t, "image/png", fields["content_type"])
	assert.Equal(t, "hit", fields["preview_cache"])
	assert.EqualValues(t, 3, fields["pages"])
	assert.EqualValues(t, 4, fields["body_size"])
	assert.Equal(t, "req-77", fields["request_id"])
	assert.Contains(t, fields, "latency")
	assert.Contains(t, fields, "client_ip")
}

func TestGinMiddleware_OmitsEmptyFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/acts/new", nil)
	req.Header.Del("User-Agent")

	_, recorded := accessLog(t, GinConfig{}, req, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	fields := recorded.FilterMessage("HTTP Request").All()[0].ContextMap()
	for _, key := range []string{"query", "preview_cache", "pages", "errors", "request_id"} {
		assert.NotContains(t, fields, key)
	}
}

func TestGinMiddleware_SkipPaths(t *testing.T) {
	cfg := GinConfig{SkipPaths: []string{"/health"}}

	_, recorded := accessLog(t, cfg, httptest.NewRequest(http.MethodGet, "/health", nil),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Zero(t, recorded.FilterMessage("HTTP Request").Len())

	_, recorded = accessLog(t, cfg, httptest.NewRequest(http.MethodGet, "/health", nil),
		func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	assert.Equal(t, 1, recorded.FilterMessage("HTTP Request").Len())
}

func TestGinMiddleware_GinErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/acts/render", nil)
	_, recorded := accessLog(t, GinConfig{}, req, func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	entry := recorded.FilterMessage("HTTP Request").All()[0]
	assert.Contains(t, entry.ContextMap()["errors"], assert.AnError.Error())
}

func TestGinMiddleware_RequestScopedLogger(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/acts/new", nil)
	req.Header.Set("X-Request-ID", "req-ctx-1")

	_, recorded := accessLog(t, GinConfig{}, req, func(c *gin.Context) {
		assert.Equal(t, "req-ctx-1", RequestID(c.Request.Context()))
		L(c.Request.Context()).Debug("from service")
		c.Status(http.StatusNoContent)
	})

	entries := recorded.FilterMessage("from service").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-ctx-1", fields["request_id"])
	assert.Equal(t, "/api/v1/acts/new", fields["path"])
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set("request_id", "req-panic")
		c.Next()
	})
	engine.Use(Recovery(zap.New(core)))
	engine.POST("/api/v1/acts/render", func(c *gin.Context) {
		panic("renderer exploded")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/acts/render", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"An internal error occurred","request_id":"req-panic"}}`, w.Body.String())

	entries := recorded.FilterMessage("Panic recovered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "renderer exploded", fields["panic"])
	assert.Equal(t, "req-panic", fields["request_id"])
	assert.Contains(t, fields, "stacktrace")
}

func TestRecovery_PassesThrough(t *testing.T) {
	engine := gin.New()
	engine.Use(Recovery(zap.NewNop()))
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
