package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error kinds. Match with errors.Is against any error returned by the
// catalog services.
var (
	ErrValidationFailed  = errors.New("validation failed")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrStoreFailure      = errors.New("store failure")
)

// Error is the typed failure returned by the lifecycle managers.
type Error struct {
	Kind    error
	Message string
	// MissingIDs lists the references that could not be resolved.
	MissingIDs []uuid.UUID
	// Fields carries per-field validation detail.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if len(e.MissingIDs) > 0 {
		ids := make([]string, len(e.MissingIDs))
		for i, id := range e.MissingIDs {
			ids[i] = id.String()
		}
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(ids, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is matches the error kind so callers can use errors.Is(err, ErrConflict).
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds an ErrNotFound failure.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds an ErrConflict failure.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// ReferenceNotFound builds an ErrReferenceNotFound failure naming the missing ids.
func ReferenceNotFound(what string, missing []uuid.UUID) *Error {
	return &Error{
		Kind:       ErrReferenceNotFound,
		Message:    fmt.Sprintf("some of the mentioned %s were not found", what),
		MissingIDs: missing,
	}
}

// ValidationFailed builds an ErrValidationFailed failure with field detail.
func ValidationFailed(message string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidationFailed, Message: message, Fields: fields}
}

// StoreFailure wraps an unexpected persistence error.
func StoreFailure(op string, err error) *Error {
	return &Error{Kind: ErrStoreFailure, Message: op, Err: err}
}

// AsError extracts the typed failure from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
