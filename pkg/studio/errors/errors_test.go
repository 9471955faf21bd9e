package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeValidation, "missing required params", nil)

	assert.NotNil(t, err)
	assert.Equal(t, ErrCodeValidation, err.Code)
	assert.Equal(t, "missing required params", err.Message)
	assert.Nil(t, err.Cause)
}

func TestNew_WithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(ErrCodeNetwork, "generation request failed", cause)

	assert.Equal(t, ErrCodeNetwork, err.Code)
	assert.Equal(t, "generation request failed", err.Message)
	assert.Equal(t, cause, err.Cause)
}

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeServer, "generation rejected", nil)
	errorString := err.Error()

	assert.Contains(t, errorString, ErrCodeServer)
	assert.Contains(t, errorString, "generation rejected")
}

func TestAppError_Error_WithCause(t *testing.T) {
	cause := errors.New("status 502")
	err := New(ErrCodeServer, "generation rejected", cause)
	errorString := err.Error()

	assert.Contains(t, errorString, ErrCodeServer)
	assert.Contains(t, errorString, "generation rejected")
	assert.Contains(t, errorString, "status 502")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ErrCodePersistence, "draft write failed", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeAuthExpired, CodeOf(New(ErrCodeAuthExpired, "token expired", nil)))
	assert.Equal(t, "", CodeOf(errors.New("plain error")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestCodeOf_Wrapped(t *testing.T) {
	inner := New(ErrCodeAuthExpired, "token expired", nil)
	wrapped := errors.Join(errors.New("outer"), inner)

	assert.Equal(t, ErrCodeAuthExpired, CodeOf(wrapped))
}

func TestHasCode(t *testing.T) {
	err := New(ErrCodeNetwork, "timeout", nil)

	assert.True(t, HasCode(err, ErrCodeNetwork))
	assert.False(t, HasCode(err, ErrCodeServer))
	assert.False(t, HasCode(nil, ErrCodeNetwork))
}

func TestErrorCodes(t *testing.T) {
	// Verify all error codes are unique and non-empty
	codes := []string{
		ErrCodeValidation,
		ErrCodeNetwork,
		ErrCodeServer,
		ErrCodeAuthExpired,
		ErrCodePersistence,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code)
		assert.False(t, seen[code], "duplicate error code: %s", code)
		seen[code] = true
	}
}
