package apperrors

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ValidationError carries per-field messages for input that failed validation.
// It unwraps to ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Classified reports whether err already wraps one of the package sentinels.
func Classified(err error) bool {
	for _, sentinel := range []error{
		ErrUnauthenticated,
		ErrForbidden,
		ErrNotFound,
		ErrValidation,
		ErrConflict,
		ErrBackendUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
