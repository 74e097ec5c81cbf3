package apperr

import (
	"errors"
	"net/http"
)

// Error is a domain error carrying the HTTP status it maps to at the
// edge. Handlers never build status codes themselves; they extract the
// kind with As/StatusOf.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error      { return &Error{Status: http.StatusBadRequest, Message: msg} }
func Unauthorized(msg string) *Error    { return &Error{Status: http.StatusUnauthorized, Message: msg} }
func Forbidden(msg string) *Error       { return &Error{Status: http.StatusForbidden, Message: msg} }
func NotFound(msg string) *Error        { return &Error{Status: http.StatusNotFound, Message: msg} }
func Conflict(msg string) *Error        { return &Error{Status: http.StatusConflict, Message: msg} }
func TooManyRequests(msg string) *Error { return &Error{Status: http.StatusTooManyRequests, Message: msg} }

// Wrap attaches an underlying cause while keeping the kind and message.
func (e *Error) Wrap(err error) *Error {
	return &Error{Status: e.Status, Message: e.Message, Err: err}
}

// As extracts an *Error from any error chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err, or 500 for anything that is
// not a typed domain error.
func StatusOf(err error) int {
	if ae, ok := As(err); ok {
		return ae.Status
	}
	return http.StatusInternalServerError
}
