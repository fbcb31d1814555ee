package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveCORS(cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.Use(CORSWithConfig(cfg))
	engine.GET("/api/v1/acts/new", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/api/v1/acts/new", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCORS_DefaultAllowsNoOrigin(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodOptions} {
		w := serveCORS(DefaultCORSConfig(), method, "http://elsewhere.example")
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), method)
	}
	assert.Equal(t, http.StatusNoContent, serveCORS(DefaultCORSConfig(), http.MethodOptions, "http://elsewhere.example").Code)
}

func TestCORSWithConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"http://localhost:5173", "https://akti.example.lv"}
	cfg.AllowCredentials = true

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
		wantCreds  string
	}{
		{"allowed origin", http.MethodGet, "http://localhost:5173", http.StatusOK, "http://localhost:5173", "true"},
		{"second allowed origin", http.MethodGet, "https://akti.example.lv", http.StatusOK, "https://akti.example.lv", "true"},
		{"unknown origin", http.MethodGet, "http://evil.example", http.StatusOK, "", ""},
		{"same-origin request", http.MethodGet, "", http.StatusOK, "", ""},
		{"preflight from allowed origin", http.MethodOptions, "http://localhost:5173", http.StatusNoContent, "http://localhost:5173", "true"},
		{"preflight from unknown origin", http.MethodOptions, "http://evil.example", http.StatusNoContent, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveCORS(cfg, tt.method, tt.origin)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, tt.wantOrigin != "", w.Header().Get("Access-Control-Allow-Methods") != "")
		})
	}

	t.Run("exposes the preview and export headers", func(t *testing.T) {
		w := serveCORS(cfg, http.MethodGet, "http://localhost:5173")

		exposed := w.Header().Get("Access-Control-Expose-Headers")
		assert.Contains(t, exposed, "X-Page-Count")
		assert.Contains(t, exposed, "X-Render-Warnings")
		assert.Contains(t, exposed, "Content-Disposition")
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})
}

func TestCORSWithConfig_Wildcard(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"*"}
	cfg.AllowCredentials = true

	w := serveCORS(cfg, http.MethodGet, "http://any.example")

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}
