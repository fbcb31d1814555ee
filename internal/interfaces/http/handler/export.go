package handler

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	actapp "github.com/actdesk/backend/internal/application/act"
)

// ExportHandler serves the export history and the stored documents
type ExportHandler struct {
	BaseHandler
	renders *actapp.RenderService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(renders *actapp.RenderService) *ExportHandler {
	return &ExportHandler{renders: renders}
}

// List handles GET /exports
func (h *ExportHandler) List(c *gin.Context) {
	req := actapp.ListExportsRequest{Page: 1, PageSize: 20, OrderBy: "created_at", OrderDir: "desc"}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	result, err := h.renders.ListExports(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.Size)
}

// Get handles GET /exports/:id
func (h *ExportHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid export ID format")
		return
	}
	record, err := h.renders.GetExport(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, record)
}

// Download handles GET /exports/:id/file
func (h *ExportHandler) Download(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid export ID format")
		return
	}
	record, rc, err := h.renders.OpenExport(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	defer rc.Close()

	name := path.Base(record.StorageKey)
	if record.ActNumber != "" {
		name = record.ActNumber + path.Ext(record.StorageKey)
	}
	extra := map[string]string{
		"Content-Disposition": `attachment; filename="` + strings.ReplaceAll(name, `"`, "_") + `"`,
	}
	c.DataFromReader(http.StatusOK, record.Size, record.ContentType, rc, extra)
}

// File handles GET /exports/files/*key, the address local storage hands out
func (h *ExportHandler) File(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	rc, err := h.renders.OpenStored(c.Request.Context(), key)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	defer rc.Close()

	contentType := "application/octet-stream"
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf":
		contentType = "application/pdf"
	case ".docx":
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".html":
		contentType = "text/html; charset=utf-8"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	n, _ := io.Copy(c.Writer, rc)
	c.Header("X-Bytes", strconv.FormatInt(n, 10))
}
