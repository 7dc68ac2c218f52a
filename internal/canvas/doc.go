// Package canvas manages the code canvas that sits beside the chat
// transcript.
//
// A Session tracks whether the canvas is open, what it shows (content,
// language, display mode) and whether the model is currently writing into
// it. Every save appends to an in-memory version log that supports undo,
// redo and restore; the log is append-only, so restoring an old version
// never loses a newer one. Saved versions are persisted through the
// backend artifact API.
//
// Session is safe for concurrent use: the streaming goroutine appends
// content while the UI reads and edits.
package canvas
