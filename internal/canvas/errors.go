package canvas

import "errors"

var (
	// ErrUnsavedEdits is returned when loading an artifact would discard
	// edits that were never saved as a version.
	ErrUnsavedEdits = errors.New("canvas has unsaved edits")

	// ErrNoSaver is returned when a save or load is attempted on a session
	// built without backend persistence.
	ErrNoSaver = errors.New("canvas session has no saver")

	// ErrNothingToSave is returned when SaveVersion is called on an empty
	// canvas.
	ErrNothingToSave = errors.New("canvas content is empty")
)
