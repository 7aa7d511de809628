package grid

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/JonMunkholm/datagrid/internal/core"
)

var (
	// ErrNotEditing is returned by CommitEdit when no cell is being edited.
	ErrNotEditing = errors.New("no cell is being edited")

	// ErrNotEditable is returned when editing a read-only or unknown column.
	ErrNotEditable = errors.New("column is not editable")

	// ErrRowOutOfRange is returned when the row index is not on the page.
	ErrRowOutOfRange = errors.New("row index out of range")
)

// CellKey addresses one cell of the loaded page.
type CellKey struct {
	Row    int
	Column string
}

// PendingEdit is an uncommitted change to one cell.
type PendingEdit struct {
	CellKey
	Value    any
	Original core.Row // Row snapshot taken at the row's first edit
}

// EditBuffer holds uncommitted cell edits. It never modifies the loaded
// rows; displayed values overlay the pending ones.
type EditBuffer struct {
	def   core.TableDefinition
	rules *core.RuleValidator

	pending   map[CellKey]any
	snapshots map[int]core.Row

	editing  *CellKey
	original any
}

// NewEditBuffer creates an empty buffer for def. A nil rules uses the
// shared validator.
func NewEditBuffer(def core.TableDefinition, rules *core.RuleValidator) *EditBuffer {
	if rules == nil {
		rules = core.Rules()
	}
	return &EditBuffer{
		def:       def,
		rules:     rules,
		pending:   make(map[CellKey]any),
		snapshots: make(map[int]core.Row),
	}
}

// Begin marks a cell as being edited and returns its effective value:
// the pending value if any, else the stored one. Edits are held per row
// position; while a position holds unsaved edits for a record that is no
// longer shown there, Begin fails with core.ErrUnsavedEdits.
func (b *EditBuffer) Begin(rows []core.Row, rowIndex int, column string) (any, error) {
	if rowIndex < 0 || rowIndex >= len(rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, rowIndex)
	}
	col, ok := b.def.Column(column)
	if !ok || !col.Editable {
		return nil, fmt.Errorf("%w: %s", ErrNotEditable, column)
	}

	row := rows[rowIndex]
	if snap, ok := b.snapshots[rowIndex]; !ok || !sameRow(snap, row) {
		if ok && b.hasPending(rowIndex) {
			return nil, fmt.Errorf("%w: row %d", core.ErrUnsavedEdits, rowIndex+1)
		}
		b.snapshots[rowIndex] = row.Clone()
	}

	key := CellKey{Row: rowIndex, Column: column}
	b.editing = &key
	b.original = core.GetPath(b.snapshots[rowIndex], column)

	if v, ok := b.pending[key]; ok {
		return v, nil
	}
	return b.original, nil
}

// Editing returns the cell being edited.
func (b *EditBuffer) Editing() (CellKey, bool) {
	if b.editing == nil {
		return CellKey{}, false
	}
	return *b.editing, true
}

// Cancel drops the in-progress edit.
func (b *EditBuffer) Cancel() {
	b.editing = nil
	b.original = nil
}

// Commit validates and normalizes value for the cell being edited. A value
// equal to the original leaves no pending edit behind. A validation failure
// discards this edit only and returns a core.ValidationError.
//
// Strings are parsed for the column's type; other values are taken as
// already typed.
func (b *EditBuffer) Commit(value any) (changed bool, err error) {
	if b.editing == nil {
		return false, ErrNotEditing
	}
	key := *b.editing
	original := b.original
	b.Cancel()

	col, _ := b.def.Column(key.Column)
	normalized, err := b.normalize(col, value)
	if err != nil {
		return false, err
	}

	if sameValue(col, original, normalized) {
		delete(b.pending, key)
		b.forgetSnapshotIfClean(key.Row)
		return false, nil
	}

	b.pending[key] = normalized
	return true, nil
}

func (b *EditBuffer) normalize(col core.Column, value any) (any, error) {
	var (
		v   any
		err error
	)
	switch x := value.(type) {
	case string:
		v, err = core.ParseCell(col, x)
	case time.Time:
		v = x.UTC().Format(core.ISOLayout)
	default:
		v = value
	}
	if err != nil {
		return nil, err
	}
	if err := b.rules.Check(col, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Value returns the effective value of a cell of row: pending wins over
// stored. Pending edits only overlay the row they were made on.
func (b *EditBuffer) Value(rowIndex int, row core.Row, column string) any {
	if v, ok := b.pendingFor(rowIndex, row, column); ok {
		return v
	}
	return core.GetPath(row, column)
}

// Overlay returns the pending values for row keyed by column, for use with
// Formatter.Cell.
func (b *EditBuffer) Overlay(rowIndex int, row core.Row) map[string]any {
	snap, ok := b.snapshots[rowIndex]
	if !ok || !sameRow(snap, row) {
		return nil
	}
	var out map[string]any
	for key, v := range b.pending {
		if key.Row != rowIndex {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[key.Column] = v
	}
	return out
}

// IsPending reports whether a cell has an uncommitted value.
func (b *EditBuffer) IsPending(rowIndex int, column string) bool {
	_, ok := b.pending[CellKey{Row: rowIndex, Column: column}]
	return ok
}

// IsPendingOn is IsPending for the record row, which is what the page
// shows at rowIndex.
func (b *EditBuffer) IsPendingOn(rowIndex int, row core.Row, column string) bool {
	_, ok := b.pendingFor(rowIndex, row, column)
	return ok
}

func (b *EditBuffer) pendingFor(rowIndex int, row core.Row, column string) (any, bool) {
	v, ok := b.pending[CellKey{Row: rowIndex, Column: column}]
	if !ok {
		return nil, false
	}
	if snap := b.snapshots[rowIndex]; !sameRow(snap, row) {
		return nil, false
	}
	return v, true
}

// Len returns the number of pending edits.
func (b *EditBuffer) Len() int {
	return len(b.pending)
}

// Pending returns all pending edits ordered by row then column.
func (b *EditBuffer) Pending() []PendingEdit {
	out := make([]PendingEdit, 0, len(b.pending))
	for key, v := range b.pending {
		out = append(out, PendingEdit{CellKey: key, Value: v, Original: b.snapshots[key.Row]})
	}
	slices.SortFunc(out, func(a, c PendingEdit) int {
		if a.Row != c.Row {
			return a.Row - c.Row
		}
		return strings.Compare(a.Column, c.Column)
	})
	return out
}

// Resolve clears a committed edit if its value has not changed since.
func (b *EditBuffer) Resolve(key CellKey, value any) {
	if v, ok := b.pending[key]; ok && reflect.DeepEqual(v, value) {
		delete(b.pending, key)
	}
	b.forgetSnapshotIfClean(key.Row)
}

// Reset drops every pending edit.
func (b *EditBuffer) Reset() {
	clear(b.pending)
	clear(b.snapshots)
	b.Cancel()
}

func (b *EditBuffer) hasPending(rowIndex int) bool {
	for key := range b.pending {
		if key.Row == rowIndex {
			return true
		}
	}
	return false
}

func (b *EditBuffer) forgetSnapshotIfClean(rowIndex int) {
	if b.editing != nil && b.editing.Row == rowIndex {
		return
	}
	if !b.hasPending(rowIndex) {
		delete(b.snapshots, rowIndex)
	}
}

// sameRow reports whether a snapshot and a displayed row are the same
// record. Rows without identifiers are matched by position.
func sameRow(snap, row core.Row) bool {
	_, snapHasID := snap.ID()
	_, rowHasID := row.ID()
	if !snapHasID || !rowHasID {
		return snap != nil && row != nil
	}
	return core.SameRecord(snap, row)
}

// sameValue compares an original and an edited value. Dates compare by
// instant and numbers numerically; nil equals "". Other plain values
// compare by text, so a stored 3 equals an edited "3".
func sameValue(col core.Column, original, edited any) bool {
	if isEmpty(original) && isEmpty(edited) {
		return true
	}

	if col.IsDate() {
		a, okA := dateOf(original)
		c, okC := dateOf(edited)
		if okA && okC {
			return a.Equal(c)
		}
	}

	if a, ok := asNumber(original); ok {
		if c, ok := asNumber(edited); ok {
			return a == c
		}
	}

	if scalar(original) && scalar(edited) {
		return rawString(original) == rawString(edited)
	}

	return reflect.DeepEqual(original, edited)
}

// scalar reports whether v is a plain value whose text form identifies it.
func scalar(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Invalid, reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return false
	}
	return true
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func dateOf(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		return core.ParseDate(x)
	}
	return time.Time{}, false
}
