package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds shared by the client core and the backend server.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("network error")
	ErrConflict     = errors.New("conflict")
)

var kinds = []error{ErrNotFound, ErrValidation, ErrUnauthorized, ErrNetwork, ErrConflict}

// FieldError describes a rejected input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// Validation returns a FieldError for the given field.
func Validation(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// NotFound returns an error of kind ErrNotFound naming the missing entity.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}

// Conflict returns an error of kind ErrConflict.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// Unauthorized returns an error of kind ErrUnauthorized.
func Unauthorized(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrUnauthorized)
}

// Kind returns the sentinel kind wrapped by err, or nil when err carries none.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// HTTPStatus maps an error to the status code the server answers with.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrConflict:
		return http.StatusConflict
	case ErrNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus maps a response status code back to an error kind.
// It returns nil for codes below 400.
func FromStatus(code int) error {
	switch {
	case code < 400:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return ErrValidation
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusConflict:
		return ErrConflict
	default:
		return ErrNetwork
	}
}
