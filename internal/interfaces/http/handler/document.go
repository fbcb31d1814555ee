package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	actapp "github.com/actdesk/backend/internal/application/act"
	"github.com/actdesk/backend/internal/interfaces/http/dto"
)

// DocumentHandler serves project files, templates and the defaults file
type DocumentHandler struct {
	BaseHandler
	documents *actapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents *actapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// =============================================================================
// Request/Response Types
// =============================================================================

// SaveProjectRequest saves an act under a project file name
type SaveProjectRequest struct {
	Name string          `json:"name" binding:"required,max=255"`
	Act  json.RawMessage `json:"act" binding:"required"`
}

// LoadProjectRequest names the project to load
type LoadProjectRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// SaveProjectResponse reports where a project was written
type SaveProjectResponse struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// SaveTemplateRequest saves an act as a named template
type SaveTemplateRequest struct {
	Name      string          `json:"name" binding:"required,max=200"`
	Password  string          `json:"password" binding:"max=200"`
	Act       json.RawMessage `json:"act" binding:"required"`
	Overwrite bool            `json:"overwrite"`
}

// LoadTemplateRequest carries the template password, if any
type LoadTemplateRequest struct {
	Password string `json:"password"`
}

// =============================================================================
// Projects
// =============================================================================

// ListProjects handles GET /projects
func (h *DocumentHandler) ListProjects(c *gin.Context) {
	files, err := h.documents.ListProjects(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, files)
}

// SaveProject handles POST /projects/save
func (h *DocumentHandler) SaveProject(c *gin.Context) {
	var req SaveProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}
	a, ok := h.rawRecord(c, req.Act)
	if !ok {
		return
	}
	path, err := h.documents.SaveProject(c.Request.Context(), req.Name, a)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, SaveProjectResponse{Name: req.Name, Path: path})
}

// LoadProject handles POST /projects/load
func (h *DocumentHandler) LoadProject(c *gin.Context) {
	var req LoadProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}
	a, err := h.documents.LoadProject(c.Request.Context(), req.Name)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, recordOf(a))
}

// DeleteProject handles DELETE /projects/:name
func (h *DocumentHandler) DeleteProject(c *gin.Context) {
	if err := h.documents.DeleteProject(c.Request.Context(), c.Param("name")); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// =============================================================================
// Templates
// =============================================================================

// ListTemplates handles GET /templates
func (h *DocumentHandler) ListTemplates(c *gin.Context) {
	templates, err := h.documents.ListTemplates(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, templates)
}

// SaveTemplate handles POST /templates. An existing template is only
// replaced when overwrite is set.
func (h *DocumentHandler) SaveTemplate(c *gin.Context) {
	var req SaveTemplateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if !req.Overwrite && h.documents.TemplateExists(req.Name) {
		h.Error(c, http.StatusConflict, dto.ErrCodeAlreadyExists, "A template with this name already exists")
		return
	}
	a, ok := h.rawRecord(c, req.Act)
	if !ok {
		return
	}
	if err := h.documents.SaveTemplate(c.Request.Context(), req.Name, req.Password, a); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, gin.H{"name": req.Name, "protected": req.Password != ""})
}

// LoadTemplate handles POST /templates/:name/load
func (h *DocumentHandler) LoadTemplate(c *gin.Context) {
	var req LoadTemplateRequest
	if c.Request.ContentLength != 0 {
		if !h.bindJSON(c, &req) {
			return
		}
	}
	a, err := h.documents.LoadTemplate(c.Request.Context(), c.Param("name"), req.Password)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, recordOf(a))
}

// DeleteTemplate handles DELETE /templates/:name
func (h *DocumentHandler) DeleteTemplate(c *gin.Context) {
	if err := h.documents.DeleteTemplate(c.Request.Context(), c.Param("name")); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// =============================================================================
// Defaults
// =============================================================================

// GetDefaults handles GET /defaults
func (h *DocumentHandler) GetDefaults(c *gin.Context) {
	a, err := h.documents.LoadDefaults(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, recordOf(a))
}

// SaveDefaults handles PUT /defaults
func (h *DocumentHandler) SaveDefaults(c *gin.Context) {
	a, ok := h.bindAct(c)
	if !ok {
		return
	}
	if err := h.documents.SaveDefaults(c.Request.Context(), a); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	saved, err := h.documents.LoadDefaults(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, recordOf(saved))
}
