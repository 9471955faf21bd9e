package errors

import (
	"errors"
	"fmt"
)

// AppError represents a workflow-level error with a code and optional cause
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code carried by err, or the empty string when err is
// not an AppError anywhere in its chain.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return CodeOf(err) == code
}

// Error codes
const (
	ErrCodeValidation  = "VALIDATION_FAILED"
	ErrCodeNetwork     = "NETWORK_FAILED"
	ErrCodeServer      = "SERVER_REJECTED"
	ErrCodeAuthExpired = "AUTH_EXPIRED"
	ErrCodePersistence = "PERSISTENCE_FAILED"
)
