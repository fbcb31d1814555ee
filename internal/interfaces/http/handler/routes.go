package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/actdesk/backend/internal/interfaces/http/router"
)

// ActRoutes creates the route group for composing and rendering acts.
// heavy wraps the routes that start a renderer.
func ActRoutes(h *ActHandler, heavy ...gin.HandlerFunc) *router.Group {
	group := router.NewGroup("/acts")

	group.GET("/new", h.New)
	group.POST("/totals", h.Totals)
	group.POST("/validate", h.Validate)
	group.POST("/transition", h.Transition)

	group.POST("/render", append(heavy, h.Render)...)
	group.POST("/preview", append(heavy, h.Preview)...)
	group.POST("/export", append(heavy, h.Export)...)

	return group
}

// ProjectRoutes creates the route group for project files
func ProjectRoutes(h *DocumentHandler) *router.Group {
	group := router.NewGroup("/projects")

	group.GET("", h.ListProjects)
	group.POST("/save", h.SaveProject)
	group.POST("/load", h.LoadProject)
	group.DELETE("/:name", h.DeleteProject)

	return group
}

// TemplateRoutes creates the route group for templates
func TemplateRoutes(h *DocumentHandler) *router.Group {
	group := router.NewGroup("/templates")

	group.GET("", h.ListTemplates)
	group.POST("", h.SaveTemplate)
	group.POST("/:name/load", h.LoadTemplate)
	group.DELETE("/:name", h.DeleteTemplate)

	return group
}

// DefaultsRoutes creates the route group for the defaults record
func DefaultsRoutes(h *DocumentHandler) *router.Group {
	group := router.NewGroup("/defaults")

	group.GET("", h.GetDefaults)
	group.PUT("", h.SaveDefaults)

	return group
}

// PartyRoutes creates the route group for the address book
func PartyRoutes(h *PartyHandler) *router.Group {
	group := router.NewGroup("/parties")

	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)

	return group
}

// ExportRoutes creates the route group for export history and stored files
func ExportRoutes(h *ExportHandler) *router.Group {
	group := router.NewGroup("/exports")

	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.GET("/:id/file", h.Download)
	group.GET("/files/*key", h.File)

	return group
}

// SystemRoutes creates the route group for system information
func SystemRoutes(h *SystemHandler) *router.Group {
	group := router.NewGroup("/system")

	group.GET("/info", h.GetSystemInfo)
	group.GET("/health", h.Health)

	return group
}
