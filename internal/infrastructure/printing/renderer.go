package printing

import (
	"context"
	"strings"
	"time"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/layout"
)

// Format is an output document format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
)

// ParseFormat parses a format name, case-insensitively
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatPDF, FormatDOCX, FormatHTML:
		return f, true
	}
	return "", false
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// RenderRequest contains everything needed to lay out one act
type RenderRequest struct {
	// Document is the composed act; renderers never re-derive its decisions
	Document *act.Composition
	// Style is the resolved style sheet
	Style *layout.StyleSheet
}

func (r *RenderRequest) validate() error {
	if r == nil {
		return NewRenderError(ErrCodeInvalidRequest, "render request is nil", nil)
	}
	if r.Document == nil {
		return NewRenderError(ErrCodeInvalidRequest, "render request has no document", nil)
	}
	if r.Style == nil {
		return NewRenderError(ErrCodeInvalidRequest, "render request has no style sheet", nil)
	}
	return nil
}

// RenderResult contains the output of a render
type RenderResult struct {
	// Content is the rendered document
	Content []byte
	// Format of Content
	Format Format
	// PageCount is the number of pages, when the format has pages
	PageCount int
	// Warnings lists optional steps that failed without failing the render
	Warnings []string
	// RenderDuration is the time taken to render
	RenderDuration time.Duration
}

// Renderer turns a composed act into document bytes
type Renderer interface {
	// Format returns the format this renderer produces
	Format() Format
	// Render lays out the document
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
}

// RenderError represents an error during rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Code + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the machine-readable code
func (e *RenderError) ErrorCode() string {
	return e.Code
}

// Common render error codes
const (
	ErrCodeRenderTimeout         = "RENDER_TIMEOUT"
	ErrCodeRenderFailed          = "RENDER_FAILED"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeBinaryNotFound        = "BINARY_NOT_FOUND"
	ErrCodeRasterizerUnavailable = "RASTERIZER_UNAVAILABLE"
	ErrCodeUnsupportedFormat     = "UNSUPPORTED_FORMAT"
	ErrCodeStorageFailed         = "STORAGE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// contextError maps a cancelled or expired context onto a RenderError
func contextError(ctx context.Context) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return NewRenderError(ErrCodeRenderTimeout, "rendering timed out", ctx.Err())
	default:
		return NewRenderError(ErrCodeRenderTimeout, "rendering was cancelled", ctx.Err())
	}
}
