package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	actapp "github.com/actdesk/backend/internal/application/act"
	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
	"github.com/actdesk/backend/internal/infrastructure/printing"
	"github.com/actdesk/backend/internal/interfaces/http/dto"
)

// ActHandler serves the act composing endpoints: defaults, totals,
// render, preview, export, validation and status changes
type ActHandler struct {
	BaseHandler
	documents *actapp.DocumentService
	renders   *actapp.RenderService
}

// NewActHandler creates a new ActHandler
func NewActHandler(documents *actapp.DocumentService, renders *actapp.RenderService) *ActHandler {
	return &ActHandler{documents: documents, renders: renders}
}

// =============================================================================
// Request/Response Types
// =============================================================================

// ValidateResponse lists the problems found in a record
type ValidateResponse struct {
	Valid  bool                   `json:"valid"`
	Errors []actapp.FieldError    `json:"errors"`
	Totals *actapp.TotalsResponse `json:"totals"`
}

// =============================================================================
// Body helpers
// =============================================================================

// readRecord decodes the request body as an act record. Keys missing from
// the body keep their defaults, exactly as when loading a file.
func readRecord(c *gin.Context) (*codec.Record, error) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

func decodeRecord(data []byte) (*codec.Record, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	return codec.Decode(data)
}

var errEmptyBody = errors.New("request body is empty")

// bindAct reads the act from the body, writing the error response itself
// when the body is unusable
func (h *BaseHandler) bindAct(c *gin.Context) (*act.Act, bool) {
	rec, ok := h.bindRecord(c)
	if !ok {
		return nil, false
	}
	return codec.FromRecord(rec), true
}

func (h *BaseHandler) bindRecord(c *gin.Context) (*codec.Record, bool) {
	rec, err := readRecord(c)
	if err != nil {
		h.recordError(c, err)
		return nil, false
	}
	return rec, true
}

func (h *BaseHandler) recordError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		h.HandleDomainError(c, err)
	case errors.Is(err, errEmptyBody):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body must be an act record")
	default:
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is not a valid act record")
	}
}

// rawRecord decodes an act record embedded in a larger JSON body
func (h *BaseHandler) rawRecord(c *gin.Context, raw json.RawMessage) (*act.Act, bool) {
	rec, err := decodeRecord(raw)
	if err != nil {
		h.recordError(c, err)
		return nil, false
	}
	return codec.FromRecord(rec), true
}

// recordOf returns a as it is written to files
func recordOf(a *act.Act) *codec.Record {
	rec := codec.ToRecord(a)
	rec.SchemaVersion = codec.SchemaVersion
	return rec
}

func formatParam(c *gin.Context) (printing.Format, bool) {
	f, ok := printing.ParseFormat(c.DefaultQuery("format", string(printing.FormatPDF)))
	return f, ok
}

// attachmentName is the download file name of a rendered act
func attachmentName(a *act.Act, f printing.Format) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(a.Number))
	if name == "" {
		name = "akts"
	}
	return name + f.Extension()
}

// =============================================================================
// Endpoints
// =============================================================================

// New handles GET /acts/new and returns a fresh record with the saved
// defaults applied
func (h *ActHandler) New(c *gin.Context) {
	h.Success(c, recordOf(h.documents.NewAct(c.Request.Context())))
}

// Totals handles POST /acts/totals
func (h *ActHandler) Totals(c *gin.Context) {
	a, ok := h.bindAct(c)
	if !ok {
		return
	}
	h.Success(c, h.renders.Totals(a))
}

// Validate handles POST /acts/validate. The record is never rejected here;
// the response lists what an editor should fix.
func (h *ActHandler) Validate(c *gin.Context) {
	rec, ok := h.bindRecord(c)
	if !ok {
		return
	}
	errs := actapp.ValidateRecord(rec)
	h.Success(c, ValidateResponse{
		Valid:  len(errs) == 0,
		Errors: errs,
		Totals: h.renders.Totals(codec.FromRecord(rec)),
	})
}

// Render handles POST /acts/render?format=pdf|docx|html and returns the
// document itself
func (h *ActHandler) Render(c *gin.Context) {
	format, ok := formatParam(c)
	if !ok {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeUnsupportedFormat, "format must be pdf, docx or html")
		return
	}
	a, ok := h.bindAct(c)
	if !ok {
		return
	}

	result, err := h.renders.Render(c.Request.Context(), a, format)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	disposition := "attachment"
	if format == printing.FormatHTML || c.Query("inline") == "true" {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition+`; filename="`+attachmentName(a, format)+`"`)
	if result.PageCount > 0 {
		c.Header("X-Page-Count", strconv.Itoa(result.PageCount))
	}
	if len(result.Warnings) > 0 {
		c.Header("X-Render-Warnings", strconv.Itoa(len(result.Warnings)))
	}
	c.Data(http.StatusOK, format.ContentType(), result.Content)
}

// Preview handles POST /acts/preview?page=N and returns one PNG page
func (h *ActHandler) Preview(c *gin.Context) {
	page := 1
	if p := c.Query("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			h.BadRequest(c, "page must be a positive number")
			return
		}
		page = n
	}
	a, ok := h.bindAct(c)
	if !ok {
		return
	}

	out, err := h.renders.Preview(c.Request.Context(), a, page)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	cache := "miss"
	if out.CacheHit {
		cache = "hit"
	}
	c.Header("X-Page", strconv.Itoa(out.Page))
	c.Header("X-Page-Count", strconv.Itoa(out.PageCount))
	c.Header("X-Preview-Cache", cache)
	c.Header("X-Preview-Rasterizer", out.Rasterizer)
	c.Data(http.StatusOK, "image/png", out.Image)
}

// Export handles POST /acts/export?format=. The document is stored and
// its history record returned.
func (h *ActHandler) Export(c *gin.Context) {
	format, ok := formatParam(c)
	if !ok {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeUnsupportedFormat, "format must be pdf, docx or html")
		return
	}
	a, ok := h.bindAct(c)
	if !ok {
		return
	}

	resp, err := h.renders.Export(c.Request.Context(), a, format)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// Transition handles POST /acts/transition?status= and returns the record
// with its new status
func (h *ActHandler) Transition(c *gin.Context) {
	target := c.Query("status")
	if target == "" {
		h.BadRequest(c, "status is required")
		return
	}
	a, ok := h.bindAct(c)
	if !ok {
		return
	}
	if err := h.documents.ChangeStatus(a, target); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, recordOf(a))
}
