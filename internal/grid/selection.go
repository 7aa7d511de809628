package grid

import (
	"slices"

	"github.com/JonMunkholm/datagrid/internal/core"
)

// Selection tracks which rows of the loaded page are selected. It is reset
// whenever a new page is loaded.
type Selection struct {
	mode     core.SelectMode
	selected map[int]bool
}

// NewSelection creates an empty selection. An empty mode means multi.
func NewSelection(mode core.SelectMode) *Selection {
	if mode == "" {
		mode = core.SelectMulti
	}
	return &Selection{mode: mode, selected: make(map[int]bool)}
}

// Mode returns the selection mode.
func (s *Selection) Mode() core.SelectMode {
	return s.mode
}

// Set selects or deselects row i. In single mode selecting a row clears
// every other selection.
func (s *Selection) Set(i int, on bool) {
	if !on {
		delete(s.selected, i)
		return
	}
	if s.mode == core.SelectSingle {
		clear(s.selected)
	}
	s.selected[i] = true
}

// Toggle flips row i.
func (s *Selection) Toggle(i int) {
	s.Set(i, !s.selected[i])
}

// SelectAll selects or clears rows [0, n). Single mode only supports
// clearing.
func (s *Selection) SelectAll(n int, on bool) {
	if !on {
		clear(s.selected)
		return
	}
	if s.mode == core.SelectSingle {
		return
	}
	for i := 0; i < n; i++ {
		s.selected[i] = true
	}
}

// Clear deselects every row.
func (s *Selection) Clear() {
	clear(s.selected)
}

// IsSelected reports whether row i is selected.
func (s *Selection) IsSelected(i int) bool {
	return s.selected[i]
}

// Count returns the number of selected rows among the first n.
func (s *Selection) Count(n int) int {
	count := 0
	for i, on := range s.selected {
		if on && i >= 0 && i < n {
			count++
		}
	}
	return count
}

// AllSelected reports whether all n loaded rows are selected. False when
// nothing is loaded.
func (s *Selection) AllSelected(n int) bool {
	return n > 0 && s.Count(n) == n
}

// SomeSelected reports whether at least one of the n loaded rows is selected.
func (s *Selection) SomeSelected(n int) bool {
	return s.Count(n) > 0
}

// Indices returns the selected indices below n in ascending order.
func (s *Selection) Indices(n int) []int {
	idx := make([]int, 0, len(s.selected))
	for i, on := range s.selected {
		if on && i >= 0 && i < n {
			idx = append(idx, i)
		}
	}
	slices.Sort(idx)
	return idx
}

// Rows returns the selected rows.
func (s *Selection) Rows(rows []core.Row) []core.Row {
	idx := s.Indices(len(rows))
	out := make([]core.Row, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}
