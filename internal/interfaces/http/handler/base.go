package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/interfaces/http/dto"
	"github.com/actdesk/backend/internal/interfaces/http/middleware"
)

// BaseHandler holds the response helpers shared by every handler
type BaseHandler struct{}

// parseID reads a UUID path parameter
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	return id, err == nil
}

// bindJSON decodes and validates the body into req. On failure the error
// response is already written and false is returned.
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		middleware.HandleValidationError(c, verrs)
		return false
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.HandleDomainError(c, err)
		return false
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
	return false
}

// Success writes data with 200
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta writes one page of a list
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created writes data with 201
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes an error envelope tagged with the request ID
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.RequestIDOf(c)))
}

// BadRequest writes a 400 with ERR_BAD_REQUEST
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleDomainError records err on the context and writes the matching
// error envelope. Only domain errors expose their own message; render
// causes stay in the logs.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	code, message := classify(err)
	h.Error(c, dto.HTTPStatus(code), code, message)
}

// codedError is implemented by render errors
type codedError interface {
	error
	ErrorCode() string
}

func classify(err error) (code, message string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return dto.NormalizeErrorCode(domainErr.Code), domainErr.Message
	}
	var coded codedError
	if errors.As(err, &coded) {
		code = dto.NormalizeErrorCode(coded.ErrorCode())
		return code, renderMessage(code)
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"
	}
	return dto.ErrCodeInternal, "An unexpected error occurred"
}

// renderMessage is the client-facing text of a render error code
func renderMessage(code string) string {
	switch code {
	case dto.ErrCodeRasterizerUnavailable:
		return "Preview is unavailable: no page rasterizer could run (install poppler-utils or Chrome)"
	case dto.ErrCodeRenderTimeout:
		return "Rendering took too long"
	case dto.ErrCodeUnsupportedFormat:
		return "Output format is not supported"
	case dto.ErrCodeStorageFailed:
		return "The document could not be stored"
	case dto.ErrCodeBadRequest:
		return "The render request is incomplete"
	default:
		return "The document could not be rendered"
	}
}
