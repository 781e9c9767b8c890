package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrMalformed   = errors.New("malformed response")
)

// GenericRejection is used when a non-2xx response carries no reason.
const GenericRejection = "Request failed"

// RejectedError is a well-formed refusal from the server.
type RejectedError struct {
	Status int
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected (%d): %s", e.Status, e.Reason)
}

// IsTransport reports whether err means the round trip itself failed:
// the server could not be reached or its answer could not be decoded.
func IsTransport(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrMalformed)
}
