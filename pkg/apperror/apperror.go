// Package apperror defines the error type services return to handlers.
//
// A handler never inspects messages; it classifies with CodeOf and lets
// response.Fail pick the status.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Code int

const (
	Internal Code = iota
	BadRequest
	Unauthorized
	Forbidden
	NotFound
	Conflict
	Validation
)

func (c Code) String() string {
	switch c {
	case BadRequest:
		return "bad_request"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Validation:
		return "validation"
	default:
		return "internal"
	}
}

// Error carries a client-facing message and an optional cause that is only
// ever logged.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) error {
	return &Error{Code: code, Message: message, Err: err}
}

// Invalid builds a Validation error with per-field messages.
func Invalid(fields map[string]string) error {
	return &Error{Code: Validation, Message: "Validation failed", Fields: fields}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// CodeOf classifies err. Anything that is not an *Error is Internal.
func CodeOf(err error) Code {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return Internal
}

// HTTPStatus maps a code onto the status the API answers with. Conflicts
// surface as 400, which is what existing clients expect on duplicate
// registration.
func HTTPStatus(c Code) int {
	switch c {
	case BadRequest, Conflict:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
