package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	actapp "github.com/actdesk/backend/internal/application/act"
	"github.com/actdesk/backend/internal/infrastructure/printing"
	"github.com/actdesk/backend/internal/interfaces/http/router"
)

func systemEngine(h *SystemHandler) *gin.Engine {
	engine := gin.New()
	engine.GET("/health", h.Health)
	h.SetRoutes(router.NewRouter(engine).Register(SystemRoutes(h)).Setup())
	return engine
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	calls := 0
	renders := actapp.NewRenderService(
		[]printing.Renderer{stubRenderer{format: printing.FormatHTML}, stubRenderer{format: printing.FormatPDF}},
		actapp.WithRasterizer(stubRasterizer{calls: &calls}),
	)
	h := NewSystemHandler("1.2.0", renders)

	w := httptest.NewRecorder()
	systemEngine(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var info SystemInfoResponse
	decode(t, w, &info)
	assert.Equal(t, "actdesk", info.Name)
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, []string{"pdf", "html"}, info.Formats)
	assert.Equal(t, "stub", info.Rasterizer)
	assert.NotEmpty(t, info.GoVersion)
	assert.Equal(t, []router.RouteInfo{
		{Group: "system", Method: http.MethodGet, Path: "/api/v1/system/health"},
		{Group: "system", Method: http.MethodGet, Path: "/api/v1/system/info"},
	}, info.Endpoints)
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("no checks", func(t *testing.T) {
		h := NewSystemHandler("", nil)
		w := httptest.NewRecorder()
		systemEngine(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("failing dependency", func(t *testing.T) {
		h := NewSystemHandler("", nil)
		h.AddCheck("database", func(ctx context.Context) error { return nil })
		h.AddCheck("redis", func(ctx context.Context) error { return errors.New("connection refused") })

		w := httptest.NewRecorder()
		systemEngine(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "ok", resp.Checks["database"])
		assert.Equal(t, "connection refused", resp.Checks["redis"])
	})
}
