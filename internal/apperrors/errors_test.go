package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_ErrorString(t *testing.T) {
	err := NewNotFoundError("agent", "42")
	assert.Equal(t, "NOT_FOUND: agent not found (42)", err.Error())
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)

	err = NewForbiddenError("not allowed")
	assert.Equal(t, "FORBIDDEN: not allowed", err.Error())
}

func TestGetDomainError_Wrapped(t *testing.T) {
	base := NewValidationError("bad chatbot type", "foo")
	wrapped := fmt.Errorf("update settings: %w", base)

	got, ok := GetDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, got.Code)
	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsNotFound(wrapped))
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternalError("failed to store message", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "disk full", err.Details)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
}

func TestHelpers_PlainError(t *testing.T) {
	plain := errors.New("boom")
	_, ok := GetDomainError(plain)
	assert.False(t, ok)
	assert.False(t, IsForbidden(plain))
}
