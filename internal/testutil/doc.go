// Package testutil provides shared test helpers: a discard logger and
// fake backend servers speaking the chat streaming protocol.
package testutil
