// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Response classes. Domain packages wrap their own errors with one of these
// so handlers need not know status codes.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrConflict    = errors.New("conflicting state")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("service unavailable")
)

type errorClass struct {
	sentinel error
	status   int
	title    string
}

var errorClasses = []errorClass{
	{ErrNotFound, http.StatusNotFound, "Not Found"},
	{ErrConflict, http.StatusConflict, "Conflict"},
	{ErrValidation, http.StatusBadRequest, "Validation Failed"},
	{ErrUnavailable, http.StatusServiceUnavailable, "Service Unavailable"},
}

// RespondError writes err as an RFC7807 problem. Unclassified errors become a
// 500 with no detail.
func RespondError(w http.ResponseWriter, err error) {
	for _, c := range errorClasses {
		if errors.Is(err, c.sentinel) {
			Problem(w, c.status, c.title, err.Error())
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

// Wrap tags err with a response class so RespondError can map it.
func Wrap(class, err error) error {
	if err == nil {
		return nil
	}
	return &classified{class: class, err: err}
}

type classified struct {
	class error
	err   error
}

func (c *classified) Error() string { return c.err.Error() }

func (c *classified) Unwrap() []error { return []error{c.class, c.err} }
