// Package apperr defines the error taxonomy shared by the service layer and
// the HTTP boundary. Handlers translate an Error's Kind into a status code
// without inspecting messages.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for HTTP translation.
type Kind int

const (
	// Internal is the fallback for unexpected failures (datastore, delivery).
	Internal Kind = iota
	// Validation covers malformed or missing input, including bad OTPs.
	Validation
	// Conflict covers uniqueness violations (email/mobile already taken).
	Conflict
	// Authentication covers bad login credentials.
	Authentication
	// Unauthorized covers missing identity.
	Unauthorized
	// Forbidden covers valid identity with insufficient privilege, an
	// invalid bearer token, or an unverified account attempting login.
	Forbidden
	// NotFound covers lookups against absent records.
	NotFound
)

// Error carries a Kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the underlying cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an underlying cause. The
// cause is never rendered to clients.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// KindOf extracts the Kind from err, defaulting to Internal for errors that
// did not pass through this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Status maps an error to the HTTP status code it renders as.
func Status(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case Authentication, Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
