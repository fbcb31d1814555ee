package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	actapp "github.com/actdesk/backend/internal/application/act"
	"github.com/actdesk/backend/internal/interfaces/http/dto"
	"github.com/actdesk/backend/internal/interfaces/http/router"
)

// HealthCheck reports whether one dependency is usable
type HealthCheck func(ctx context.Context) error

// SystemHandler serves health and system information
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
	renders   *actapp.RenderService
	checks    map[string]HealthCheck
	routes    []router.RouteInfo
}

// NewSystemHandler creates a new SystemHandler. renders may be nil.
func NewSystemHandler(version string, renders *actapp.RenderService) *SystemHandler {
	if version == "" {
		version = "dev"
	}
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
		renders:   renders,
		checks:    make(map[string]HealthCheck),
	}
}

// AddCheck registers a named dependency check run by Health
func (h *SystemHandler) AddCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// SetRoutes records the mounted API endpoints reported by GetSystemInfo
func (h *SystemHandler) SetRoutes(routes []router.RouteInfo) {
	h.routes = routes
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	GoVersion  string   `json:"go_version"`
	Uptime     string   `json:"uptime"`
	Formats    []string `json:"formats"`
	Rasterizer string   `json:"rasterizer,omitempty"`

	Endpoints []router.RouteInfo `json:"endpoints,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// GetSystemInfo handles GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "actdesk",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Formats:   []string{},
		Endpoints: h.routes,
	}
	if h.renders != nil {
		for _, f := range h.renders.Formats() {
			info.Formats = append(info.Formats, string(f))
		}
		info.Rasterizer = h.renders.RasterizerName()
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// Health handles GET /health. Every registered check runs with a short
// deadline; any failure turns the answer into 503.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	c.JSON(status, resp)
}
