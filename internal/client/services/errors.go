package services

import (
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
)

var (
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSuperseded means a later operation started before this one
	// finished; its result was discarded and state left untouched.
	ErrSuperseded = errors.New("superseded by a later operation")

	// ErrMissingCredentials is returned when login is called with an
	// empty email or password.
	ErrMissingCredentials = errors.New("email and password are required")

	errAlreadyStarted = errors.New("session already started")
)

// User-facing submit messages.
const (
	MsgNetworkError     = "Network error occurred"
	MsgNotAuthenticated = "Please log in first"
	MsgUnexpectedError  = "Something went wrong, please try again"
)

// SubmitError maps an operation error to the single banner string shown
// next to a form. A nil or superseded error yields "".
func SubmitError(err error) string {
	if err == nil || errors.Is(err, ErrSuperseded) {
		return ""
	}

	var rej *client.RejectedError
	switch {
	case errors.As(err, &rej):
		return rej.Reason
	case client.IsTransport(err):
		return MsgNetworkError
	case errors.Is(err, ErrNotAuthenticated):
		return MsgNotAuthenticated
	case errors.Is(err, ErrMissingCredentials):
		return "Email and password are required"
	default:
		return MsgUnexpectedError
	}
}
