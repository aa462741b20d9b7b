package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Validation, http.StatusBadRequest},
		{EmptyCart, http.StatusBadRequest},
		{Authentication, http.StatusUnauthorized},
		{Authorization, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{DuplicateItem, http.StatusConflict},
		{Unexpected, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := Status(New(c.kind, "x")); got != c.want {
			t.Errorf("kind %d: got %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestStatusUnknownError(t *testing.T) {
	if got := Status(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("got %d, want 500", got)
	}
}

func TestStatusWrappedError(t *testing.T) {
	err := fmt.Errorf("context: %w", New(NotFound, "booking not found"))
	if got := Status(err); got != http.StatusNotFound {
		t.Errorf("got %d, want 404", got)
	}
	if msg := Message(err); msg != "booking not found" {
		t.Errorf("got message %q", msg)
	}
}

func TestMessageSanitizesUnexpected(t *testing.T) {
	err := Wrap(Unexpected, "db write failed", errors.New("connection refused to 10.0.0.3"))
	if msg := Message(err); msg != "Something went wrong" {
		t.Errorf("leaked internal message: %q", msg)
	}
}
