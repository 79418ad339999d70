// internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy decisions: validation and
// dismissal are handled locally, transient and authorization errors restore
// the prior consistent state, verification failure is terminal per attempt.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindAuthorization      Kind = "authorization"
	KindTransient          Kind = "transient"
	KindConflict           Kind = "conflict"
	KindNotFound           Kind = "not_found"
	KindVerificationFailed Kind = "verification_failed"
)

// Error carries a classification alongside the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err. Unclassified errors are
// treated as transient.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	var fieldErrs FieldErrors
	if errors.As(err, &fieldErrs) {
		return KindValidation
	}
	return KindTransient
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FieldError reports a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors aggregates field-level validation failures. Input that fails
// validation never reaches the network.
type FieldErrors []FieldError

func (f FieldErrors) Error() string {
	if len(f) == 1 {
		return fmt.Sprintf("invalid %s: %s", f[0].Field, f[0].Message)
	}
	return fmt.Sprintf("%d invalid fields", len(f))
}

// Add appends a field failure and returns the updated list.
func (f FieldErrors) Add(field, message string) FieldErrors {
	return append(f, FieldError{Field: field, Message: message})
}
