package application

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type inputKind int

const (
	inputSearch inputKind = iota
	inputEdit
	inputFilter
	inputBulk
	inputSaveFilter
	inputAddRow
	inputToggleColumn
)

// beginInput opens the prompt. column is the column the input applies to,
// if any; value is the initial text.
func (m Model) beginInput(kind inputKind, label, column, value string) (tea.Model, tea.Cmd) {
	m.mode = modeInput
	m.inputKind = kind
	m.inputLabel = label
	m.inputColumn = column
	m.inputOrig = value
	m.input.Placeholder = placeholderFor(kind)
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return m, textinput.Blink
}

func placeholderFor(kind inputKind) string {
	switch kind {
	case inputFilter:
		return "value or lo..hi, empty clears"
	case inputAddRow:
		return "name=Ada; email=ada@example.com"
	case inputToggleColumn:
		return "column key"
	}
	return ""
}

func (m Model) endInput() Model {
	m.input.Blur()
	m.mode = modeGrid
	if m.ctrl == nil {
		m.mode = modeMenu
	}
	return m
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		switch m.inputKind {
		case inputEdit:
			m.ctrl.CancelEdit()
		case inputSearch:
			m.ctrl.SetSearch(m.inputOrig)
		}
		return m.endInput(), nil

	case "enter":
		value := m.input.Value()
		m = m.endInput()
		return m.submitInput(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.inputKind == inputSearch {
		m.ctrl.SetSearch(m.input.Value())
	}
	return m, cmd
}

func (m Model) submitInput(value string) (tea.Model, tea.Cmd) {
	h := m.handler
	switch m.inputKind {
	case inputSearch:
		m.ctrl.SetSearch(value)
		return m, nil

	case inputEdit:
		if err := m.ctrl.CommitEdit(value); err != nil {
			m.setError(err)
			return m, nil
		}
		m.refresh()
		return m, nil

	case inputFilter:
		return m, h.Filter(m.inputColumn, value)

	case inputBulk:
		return m, h.BulkEdit(m.inputColumn, value)

	case inputSaveFilter:
		name := strings.TrimSpace(value)
		if name == "" {
			m.setStatus("Filter name is required")
			return m, nil
		}
		return m, h.SaveFilter(name)

	case inputAddRow:
		values, err := parseAssignments(value)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		return m, h.AddRow(values)

	case inputToggleColumn:
		key := strings.TrimSpace(value)
		if key == "" {
			return m, nil
		}
		if err := m.ctrl.ToggleColumn(key); err != nil {
			m.setError(err)
		}
		return m, nil
	}
	return m, nil
}

// parseAssignments reads "key=value; key=value". Values may contain "="
// but not ";". Blank entries are skipped.
func parseAssignments(s string) (map[string]string, error) {
	values := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected column=value, got %q", part)
		}
		values[key] = strings.TrimSpace(value)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no column values given")
	}
	return values, nil
}

/* ----------------------------------------
	SAVED FILTERS
---------------------------------------- */

func (m Model) updateFilters(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeGrid

	case "up", "k":
		if m.filterCursor > 0 {
			m.filterCursor--
		}

	case "down", "j":
		if m.filterCursor < len(m.filters)-1 {
			m.filterCursor++
		}

	case "enter":
		if m.filterCursor >= len(m.filters) {
			return m, nil
		}
		f := m.filters[m.filterCursor]
		m.mode = modeGrid
		return m, m.handler.ApplyFilter(f)
	}
	return m, nil
}
