package openlibrary

import (
	"context"
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates a 2xx response whose body could not be decoded.
var ErrMalformedResponse = errors.New("malformed OpenLibrary response")

// StatusError represents a non-2xx response from the OpenLibrary API.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("OpenLibrary returned HTTP %d for %s", e.StatusCode, e.URL)
}

// HTTPStatus exposes the status code to retry classification.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// TransportError wraps connectivity and timeout failures: the request never
// produced a complete response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is worth retrying. A cancelled
// request is not.
func (e *TransportError) Transient() bool {
	return !errors.Is(e.Err, context.Canceled)
}
