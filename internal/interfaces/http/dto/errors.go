package dto

import (
	"net/http"
	"strings"
)

// API error codes. Each is ERR_ followed by the domain or renderer code it
// stands for, so most internal codes map by prefixing alone.
const (
	ErrCodeUnknown    = "ERR_UNKNOWN"
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeValidation = "ERR_VALIDATION"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"

	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeTemplatePassword is a protected template opened with the wrong password
	ErrCodeTemplatePassword = "ERR_TEMPLATE_PASSWORD"
	// ErrCodeCorruptFile is a stored record that cannot be decoded
	ErrCodeCorruptFile = "ERR_CORRUPT_FILE"

	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"

	// ErrCodeUnsupportedFormat is an output format with no renderer
	ErrCodeUnsupportedFormat = "ERR_UNSUPPORTED_FORMAT"
	ErrCodeRenderFailed      = "ERR_RENDER_FAILED"
	ErrCodeRenderTimeout     = "ERR_RENDER_TIMEOUT"
	// ErrCodeRasterizerUnavailable means no preview backend can run
	ErrCodeRasterizerUnavailable = "ERR_RASTERIZER_UNAVAILABLE"
	ErrCodeStorageFailed         = "ERR_STORAGE_FAILED"
)

var statusByCode = map[string]int{
	ErrCodeUnknown:    http.StatusInternalServerError,
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeTemplatePassword: http.StatusForbidden,
	ErrCodeCorruptFile:      http.StatusUnprocessableEntity,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	ErrCodeUnsupportedFormat:     http.StatusBadRequest,
	ErrCodeRenderFailed:          http.StatusInternalServerError,
	ErrCodeRenderTimeout:         http.StatusGatewayTimeout,
	ErrCodeRasterizerUnavailable: http.StatusServiceUnavailable,
	ErrCodeStorageFailed:         http.StatusBadGateway,
}

// aliases cover internal codes whose API code is not simply ERR_<code>
var aliases = map[string]string{
	"VALIDATION_ERROR": ErrCodeValidation,
	"INTERNAL_ERROR":   ErrCodeInternal,
	"INVALID_REQUEST":  ErrCodeBadRequest,
	"BINARY_NOT_FOUND": ErrCodeRasterizerUnavailable,
}

// HTTPStatus is the response status for an API error code, 500 when the
// code is unknown
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode turns a domain or renderer code into its API code.
// API codes and codes with no API counterpart are returned unchanged.
func NormalizeErrorCode(code string) string {
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	if api, ok := aliases[code]; ok {
		return api
	}
	if _, ok := statusByCode["ERR_"+code]; ok {
		return "ERR_" + code
	}
	return code
}
