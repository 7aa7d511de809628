package core

import "errors"

var (
	// ErrNotFound is returned when a record addressed by id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrMissingID is returned when an update or delete targets a row
	// without an "id" or "_id" field.
	ErrMissingID = errors.New("missing id: row has no identifier")

	// ErrUnknownTable is returned for endpoints that are not registered.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownColumn is returned when a filter, sort or payload names a
	// column the table does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnsavedEdits is returned when a row position of the page still
	// holds uncommitted edits for a record that is no longer shown there.
	ErrUnsavedEdits = errors.New("unsaved edits for another record")
)

// IsPrecondition reports whether err is a per-row precondition failure
// (missing identifier, record not found, or unsaved edits in the way).
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrMissingID) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnsavedEdits)
}
