package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/grid"
)

// ActionTimeout is the maximum duration of a single grid action.
// Can be overridden for testing.
var ActionTimeout = 30 * time.Second

// TransferTimeout bounds a whole import or export run.
var TransferTimeout = 5 * time.Minute

type WdMsg string
type DoneMsg string
type ErrMsg struct{ Err error }

func (e ErrMsg) Error() string { return e.Err.Error() }

// GridHandler turns controller operations into Bubble Tea commands. Each
// command runs off the UI goroutine and reports a DoneMsg or ErrMsg.
type GridHandler struct {
	Ctrl *grid.Controller
	Root string // Directory for CSV imports and exports
}

// NewGridHandler returns a handler for ctrl with transfers under root.
func NewGridHandler(ctrl *grid.Controller, root string) *GridHandler {
	return &GridHandler{Ctrl: ctrl, Root: root}
}

// run executes fn with a timeout and maps the outcome to a message.
func run(timeout time.Duration, fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		done, err := fn(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return ErrMsg{Err: fmt.Errorf("timed out after %v", timeout)}
			}
			return ErrMsg{Err: err}
		}
		return DoneMsg(done)
	}
}

// Init loads select options and the first page.
func (h *GridHandler) Init() tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		return "", h.Ctrl.Init(ctx)
	})
}

// Reload fetches the current page again.
func (h *GridHandler) Reload() tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		return "", h.Ctrl.Load(ctx)
	})
}

func (h *GridHandler) NextPage() tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		return "", h.Ctrl.NextPage()
	})
}

func (h *GridHandler) PrevPage() tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		return "", h.Ctrl.PrevPage()
	})
}

// ToggleSort cycles the sort of column: ascending, descending, none.
func (h *GridHandler) ToggleSort(column string) tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		return "", h.Ctrl.ToggleSort(column)
	})
}

// Filter sets or, with an empty value, clears a column filter. A value
// of the form "lo..hi" filters on an inclusive range; either bound may be
// left empty.
func (h *GridHandler) Filter(column, value string) tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		return "", h.Ctrl.SetFilter(column, ParseFilter(value))
	})
}

// ParseFilter turns typed filter text into a filter value.
func ParseFilter(value string) any {
	lo, hi, ok := strings.Cut(value, "..")
	if !ok {
		return strings.TrimSpace(value)
	}
	return []string{strings.TrimSpace(lo), strings.TrimSpace(hi)}
}

func (h *GridHandler) ClearFilters() tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		return "Filters cleared", h.Ctrl.ClearFilters()
	})
}

// Commit saves every pending edit.
func (h *GridHandler) Commit() tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		if err := h.Ctrl.CommitAll(ctx); err != nil {
			return "", err
		}
		return "Changes saved", nil
	})
}

// DeleteSelected deletes the selected rows.
func (h *GridHandler) DeleteSelected() tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		n, err := h.Ctrl.DeleteSelected(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted %d row(s)", n), nil
	})
}

// BulkEdit sets column to raw on every selected row.
func (h *GridHandler) BulkEdit(column, raw string) tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		n, err := h.Ctrl.BulkEdit(ctx, column, raw)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Updated %d row(s)", n), nil
	})
}

// AddRow inserts a row from raw column values.
func (h *GridHandler) AddRow(values map[string]string) tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		if _, err := h.Ctrl.AddRow(ctx, values); err != nil {
			return "", err
		}
		return "Row added", nil
	})
}

// SaveFilter stores the current filters under name.
func (h *GridHandler) SaveFilter(name string) tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		if _, err := h.Ctrl.SaveFilter(ctx, name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Filter %q saved", name), nil
	})
}

// FiltersMsg carries the saved filters of the current table.
type FiltersMsg []core.SavedFilter

// LoadFilters lists the saved filters of the current table.
func (h *GridHandler) LoadFilters() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ActionTimeout)
		defer cancel()

		filters, err := h.Ctrl.SavedFilters(ctx)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return FiltersMsg(filters)
	}
}

// ApplyFilter replaces the current filters with a saved set.
func (h *GridHandler) ApplyFilter(f core.SavedFilter) tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		if err := h.Ctrl.ApplySavedFilter(ctx, f); err != nil {
			return "", err
		}
		return fmt.Sprintf("Filter %q applied", f.Name), nil
	})
}

// ToggleKanban switches between the table and the board.
func (h *GridHandler) ToggleKanban() tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		return "", h.Ctrl.ToggleKanban(ctx)
	})
}

// MoveCard moves a card to another board column.
func (h *GridHandler) MoveCard(cardID any, column string) tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		if err := h.Ctrl.MoveCard(ctx, cardID, column); err != nil {
			return "", err
		}
		return "Card moved", nil
	})
}

// RefreshBoard reloads the kanban board.
func (h *GridHandler) RefreshBoard() tea.Cmd {
	return run(ActionTimeout, func(ctx context.Context) (string, error) {
		return "", h.Ctrl.LoadBoard(ctx)
	})
}
