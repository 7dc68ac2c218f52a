// Package api provides the HTTP client for the synapse backend.
//
// The backend owns all durable state: workspaces, conversations, the
// branching message tree, and canvas artifacts with their version history.
// This package covers its full REST surface plus the streaming chat
// endpoint, which emits server-sent frames consumed through a Go 1.23
// iterator (see Client.StreamChat).
//
// All methods take a context and return wrapped sentinel errors
// (ErrUnauthorized, ErrNotFound, ErrServer) checkable with errors.Is.
package api
