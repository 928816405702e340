// Package errors defines the typed errors the API speaks. Every error that
// reaches a handler is normalised into an *Error carrying a stable code and
// the HTTP status it maps to.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error is a domain error with a stable machine-readable code. The wrapped
// cause is kept for logs but never serialised to clients.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches two typed errors by code, so errors.Is works against the
// sentinels below even after Clone or Wrap.
func (e *Error) Is(target error) bool {
	var t *Error
	if e == nil || !stderrors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap keeps err as the cause behind a typed error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Clone copies a sentinel, optionally overriding its message. Sentinels are
// shared; mutate copies, never the sentinel itself.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	out := *err
	if message != "" {
		out.Message = message
	}
	return &out
}

// FromError coerces any error into an *Error, treating unknown errors as
// internal server errors.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Sentinels for the failure modes the attendance domain distinguishes.
var (
	ErrNotFound        = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation      = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrConflict        = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInternal        = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrNotEnrolled     = New("NOT_ENROLLED", http.StatusPreconditionFailed, "student is not enrolled in this class")
	ErrAlreadyEnrolled = New("ALREADY_ENROLLED", http.StatusConflict, "student already enrolled in this class")
	ErrClassFull       = New("CAPACITY_EXCEEDED", http.StatusPreconditionFailed, "class is at maximum capacity")
	ErrCacheMiss       = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrExportFormat    = New("UNSUPPORTED_FORMAT", http.StatusBadRequest, "unsupported export format")
)
