package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend responses. Check with errors.Is().
var (
	// ErrUnauthorized indicates the token was missing, expired, or rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrServer indicates the backend returned a non-2xx status not covered
	// by a more specific sentinel.
	ErrServer = errors.New("server error")

	// ErrStreamClosed indicates the streaming connection ended before the
	// server sent a done or error frame.
	ErrStreamClosed = errors.New("stream closed before completion")
)

// statusError maps an HTTP status and body excerpt to a wrapped sentinel.
func statusError(status int, body string) error {
	switch status {
	case 401, 403:
		return fmt.Errorf("%w: status %d: %s", ErrUnauthorized, status, body)
	case 404:
		return fmt.Errorf("%w: status %d: %s", ErrNotFound, status, body)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrServer, status, body)
	}
}
