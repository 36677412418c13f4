// Package apperror defines the error taxonomy shared by the API server and the
// portal client: every failure is classified into one kind, which drives the
// HTTP status on the server and the displayed message on the client.
package apperror

import (
	"context"
	"errors"
	"net/http"
)

// Kinds. Match them with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrCanceled     = errors.New("request canceled")
	ErrNetwork      = errors.New("network error")
)

// Error is a classified error carrying a machine-readable code and a message
// that is safe to show to the user.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// New builds a classified error.
func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation builds a validation error.
func Validation(code, message string) *Error { return New(ErrValidation, code, message) }

// NotFound builds a not-found error.
func NotFound(code, message string) *Error { return New(ErrNotFound, code, message) }

// Forbidden builds a permission error.
func Forbidden(code, message string) *Error { return New(ErrForbidden, code, message) }

// Unauthorized builds an authentication error.
func Unauthorized(code, message string) *Error { return New(ErrUnauthorized, code, message) }

// Conflict builds a conflict error.
func Conflict(code, message string) *Error { return New(ErrConflict, code, message) }

// FromStatus classifies an HTTP status returned by the API.
func FromStatus(status int, code, message string) *Error {
	var kind error
	switch {
	case status == http.StatusUnauthorized:
		kind = ErrUnauthorized
	case status == http.StatusForbidden:
		kind = ErrForbidden
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status == http.StatusConflict:
		kind = ErrConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = ErrValidation
	default:
		kind = ErrNetwork
	}
	return New(kind, code, message)
}

// Status maps an error to the HTTP status the API answers with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable code of a classified error, or "internal".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return "internal"
}

// PublicMessage returns the message the API may expose for err.
// Unclassified errors never leak their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return "Internal server error"
}

// Display converts err into the banner text a view shows. show is false when
// nothing should be displayed (no error, or a canceled request).
func Display(err error) (msg string, show bool) {
	if err == nil || IsCanceled(err) {
		return "", false
	}

	var e *Error
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please sign in again.", true
	case errors.Is(err, ErrNotFound):
		return "The requested record could not be found.", true
	case errors.Is(err, ErrNetwork):
		return "Network error. Please check your connection and try again.", true
	case errors.As(err, &e) && e.Message != "":
		return e.Message, true
	default:
		return "Something went wrong. Please try again.", true
	}
}

// IsCanceled reports whether err comes from an aborted request.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}
