// Package apperr carries the domain error kinds every handler maps to an
// HTTP status at the boundary. Handlers never leak internals: anything that
// is not one of these kinds responds as a sanitized 500.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Validation Kind = iota
	Authentication
	Authorization
	NotFound
	Conflict
	EmptyCart
	DuplicateItem
	Upstream
	Unexpected
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Status maps an error to the HTTP status its kind carries. Unknown errors
// map to 500.
func Status(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case Validation, EmptyCart:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict, DuplicateItem:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Message returns the client-safe message for err. Wrapped causes of
// unexpected errors stay server-side.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != Unexpected {
		return ae.Msg
	}
	return "Something went wrong"
}

func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
