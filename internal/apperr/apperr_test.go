package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	wrapped := fmt.Errorf("refresh: %w", NotFound("note", "42"))

	assert.Equal(t, ErrNotFound, Kind(wrapped))
	assert.Equal(t, ErrValidation, Kind(Validation("title", "must not be empty")))
	assert.Equal(t, ErrConflict, Kind(Conflict("note %s deleted", "7")))
	assert.Nil(t, Kind(errors.New("boom")))
}

func TestFieldError(t *testing.T) {
	err := Validation("content", "too long")

	var fe *FieldError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "content", fe.Field)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "content: too long", err.Error())
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NotFound("task", "1"), http.StatusNotFound},
		{Validation("text", "empty"), http.StatusBadRequest},
		{Unauthorized("missing token"), http.StatusUnauthorized},
		{Conflict("stale"), http.StatusConflict},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status := HTTPStatus(tt.err)
		assert.Equal(t, tt.status, status)
		if status != http.StatusInternalServerError {
			assert.Equal(t, Kind(tt.err), FromStatus(status))
		}
	}

	assert.Nil(t, FromStatus(http.StatusOK))
	assert.Equal(t, ErrUnauthorized, FromStatus(http.StatusForbidden))
	assert.Equal(t, ErrNetwork, FromStatus(http.StatusServiceUnavailable))
}
