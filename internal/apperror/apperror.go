// Package apperror defines the domain error vocabulary shared by the service
// and handler layers. Services return these; handlers translate them into
// HTTP behaviour (404 page, redirect, form error) with errors.Is/errors.As.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// AppError carries a sentinel (for errors.Is), a human-readable message, and
// optionally the form field that caused a validation failure.
type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound is returned both when a record genuinely does not exist and when a
// post is hidden from the viewer — the two cases must stay indistinguishable
// so unpublished content does not leak its existence.
func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
	}
}

// Forbidden marks an ownership mismatch on a mutation. Handlers on mutation
// routes do not render this as an error — they redirect to the record's
// detail view instead.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}
