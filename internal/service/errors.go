// Package service contains the service layer for the Staff Portal API
package service

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is against these to classify any service error.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionExpired  = errors.New("session expired")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage error")
)

// ErrNoCheckInRecord is a validation error raised by a check-out with no open check-in
var ErrNoCheckInRecord = &Error{Kind: ErrValidation, Message: "No check-in record found"}

// Error is a classified service error. Message is safe to show to the
// caller, Err is the underlying cause and is only surfaced as detail.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Detail returns the underlying cause's message, if any
func (e *Error) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(format string, args ...interface{}) *Error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

func forbiddenError(message string) *Error {
	return newError(ErrForbidden, message)
}

func notFoundError(message string) *Error {
	return newError(ErrNotFound, message)
}

func conflictError(message string) *Error {
	return newError(ErrConflict, message)
}

// storageError wraps a datastore failure. A deadline is reported as a timeout.
func storageError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrStorage, Message: "Storage timeout", Err: err}
	}
	return &Error{Kind: ErrStorage, Message: "Internal Server Error", Err: err}
}
