package shared

import "fmt"

// DomainError is a failure the caller can act on. Code is stable and
// machine readable; Message is shown to the user.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is compares by Code, so a sentinel matches every error derived from it
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// WithMessage derives an error of the same kind with a specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message}
}

// Withf is WithMessage with a format string
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Sentinels. Match them with errors.Is.
var (
	ErrNotFound         = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists    = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState     = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrTemplatePassword = NewDomainError("TEMPLATE_PASSWORD", "Template password does not match")
	ErrCorruptFile      = NewDomainError("CORRUPT_FILE", "File could not be read as an act record")
)
