package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure the way the passenger sees it.
type Kind string

const (
	KindAuth     Kind = "auth"
	KindNetwork  Kind = "network"
	KindBusiness Kind = "business"
	KindStorage  Kind = "storage"
)

// ErrMissingToken is returned before any I/O when an authorized call is made
// without a token.
var ErrMissingToken = errors.New("user not authenticated")

type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of the first *Error in err's chain, or "" if there
// is none.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// Message returns the server supplied message of the first *Error in err's
// chain, or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func kindForStatus(status int) Kind {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return KindAuth
	}
	return KindBusiness
}
