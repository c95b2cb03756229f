// Package apperr defines the typed error surfaced by domain services.
// The HTTP layer serializes it into the response envelope; anything that is
// not an *Error becomes a 500.
package apperr

import (
	"errors"
	"net/http"
)

type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(code, message string) *Error {
	return New(http.StatusUnauthorized, code, message)
}

func Forbidden(code, message string) *Error {
	return New(http.StatusForbidden, code, message)
}

func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

// Conflict maps to 400: duplicate links and memberships are client mistakes,
// not state to retry against.
func Conflict(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

func Upstream(code, message string) *Error {
	return New(http.StatusInternalServerError, code, message)
}

// From extracts an *Error from err, or wraps it as a 500.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(http.StatusInternalServerError, "server_error", "internal server error")
}
