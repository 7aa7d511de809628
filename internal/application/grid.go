package application

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/grid"
)

const maxColumnWidth = 24

/* ----------------------------------------
	TABLE VIEW
---------------------------------------- */

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	h := m.handler
	def := m.view.Table
	cols := m.view.Columns

	switch msg.String() {
	case "q", "esc":
		m.closeGrid()
		return m, nil

	case "left", "h":
		if m.col > 0 {
			m.col--
			m.refresh()
		}
		return m, nil

	case "right", "l":
		if m.col < len(cols)-1 {
			m.col++
			m.refresh()
		}
		return m, nil

	case "n":
		return m, h.NextPage()

	case "p":
		return m, h.PrevPage()

	case "r":
		return m, h.Reload()

	case "s":
		col, ok := m.focusedColumn()
		if !ok {
			return m, nil
		}
		if !col.Sortable {
			m.setStatus(fmt.Sprintf("%s is not sortable", columnTitle(col)))
			return m, nil
		}
		return m, h.ToggleSort(col.Key)

	case "/":
		if !def.Search.Enabled {
			m.setStatus("Search is not enabled for this table")
			return m, nil
		}
		return m.beginInput(inputSearch, "Search", "", m.view.Search)

	case "f":
		col, ok := m.focusedColumn()
		if !ok || !m.enabled(def.Filter, "Filtering") {
			return m, nil
		}
		return m.beginInput(inputFilter, "Filter "+columnTitle(col), col.Key, filterText(m.view.Filters, col.Key))

	case "F":
		return m, h.ClearFilters()

	case "e", "enter":
		row, ok := m.cursorRow()
		col, cok := m.focusedColumn()
		if !ok || !cok {
			return m, nil
		}
		v, err := m.ctrl.BeginEdit(row, col.Key)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		return m.beginInput(inputEdit, "Edit "+columnTitle(col), col.Key, editText(v))

	case "c":
		if m.view.Pending == 0 {
			m.setStatus("No pending changes")
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Saving %d change(s)...", m.view.Pending))
		return m, h.Commit()

	case "x":
		m.ctrl.DiscardEdits()
		m.setStatus("Changes discarded")
		return m, nil

	case " ":
		if row, ok := m.cursorRow(); ok && def.Select.Enabled {
			m.ctrl.ToggleRow(row)
		}
		return m, nil

	case "a":
		if def.Select.Enabled {
			m.ctrl.SelectAll(!m.view.AllSelected)
		}
		return m, nil

	case "d":
		if !m.enabled(def.Delete, "Deleting") {
			return m, nil
		}
		if m.view.SelectedCount == 0 {
			m.setStatus("Select rows to delete first")
			return m, nil
		}
		return m, h.DeleteSelected()

	case "b":
		col, ok := m.focusedColumn()
		if !ok || !m.enabled(def.BulkEdit, "Bulk editing") {
			return m, nil
		}
		if m.view.SelectedCount == 0 {
			m.setStatus("Select rows to edit first")
			return m, nil
		}
		label := fmt.Sprintf("Set %s on %d row(s)", columnTitle(col), m.view.SelectedCount)
		return m.beginInput(inputBulk, label, col.Key, "")

	case "+":
		if !m.enabled(def.Add, "Adding rows") {
			return m, nil
		}
		return m.beginInput(inputAddRow, "New row (column=value; ...)", "", "")

	case "w":
		if !m.enabled(def.Filter, "Saving filters") {
			return m, nil
		}
		return m.beginInput(inputSaveFilter, "Save filters as", "", "")

	case "o":
		return m, h.LoadFilters()

	case "t":
		if !m.enabled(def.ColumnToggle, "Column toggling") {
			return m, nil
		}
		return m.beginInput(inputToggleColumn, "Show/hide column", "", "")

	case "v":
		if !def.Kanban.Enabled {
			m.setStatus("Board view is not enabled for this table")
			return m, nil
		}
		return m, h.ToggleKanban()

	case "E":
		if !m.enabled(def.Export, "Export") {
			return m, nil
		}
		m.setStatus("Exporting...")
		return m, h.Export()

	case "I":
		if !m.enabled(def.Import, "Import") {
			return m, nil
		}
		m.setStatus("Importing...")
		return m, h.Import()

	case "P":
		if !m.enabled(def.Import, "Import") {
			return m, nil
		}
		m.setStatus("Checking import files...")
		return m, h.Preview()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// enabled reports whether a table feature is on, setting a status when not.
func (m *Model) enabled(t core.Toggle, feature string) bool {
	if !t.Enabled {
		m.setStatus(feature + " is not enabled for this table")
	}
	return t.Enabled
}

func (m Model) focusedColumn() (core.Column, bool) {
	if m.col < 0 || m.col >= len(m.view.Columns) {
		return core.Column{}, false
	}
	return m.view.Columns[m.col], true
}

func (m Model) cursorRow() (int, bool) {
	i := m.table.Cursor()
	return i, i >= 0 && i < len(m.view.Rows)
}

// refresh copies the controller state into the table widget.
func (m *Model) refresh() {
	if m.ctrl == nil {
		return
	}
	m.view = m.ctrl.View()
	v := m.view

	if m.col >= len(v.Columns) {
		m.col = max(len(v.Columns)-1, 0)
	}

	selectable := v.Table.Select.Enabled
	selected := make(map[int]bool, len(v.Selected))
	for _, i := range v.Selected {
		selected[i] = true
	}

	var titles []string
	if selectable {
		titles = append(titles, selectMark(v.AllSelected, v.SomeSelected))
	}
	for i, col := range v.Columns {
		titles = append(titles, headerTitle(col, v.Sort, i == m.col))
	}

	rows := make([]table.Row, len(v.Rows))
	for i := range v.Rows {
		var r table.Row
		if selectable {
			r = append(r, selectMark(selected[i], false))
		}
		for _, col := range v.Columns {
			cell := m.ctrl.Cell(i, col)
			if m.ctrl.IsPending(i, col.Key) {
				cell += "*"
			}
			r = append(r, cell)
		}
		rows[i] = r
	}

	columns := make([]table.Column, len(titles))
	total := 0
	for i, title := range titles {
		w := lipgloss.Width(title)
		for _, r := range rows {
			w = max(w, lipgloss.Width(r[i]))
		}
		columns[i] = table.Column{Title: title, Width: min(w, maxColumnWidth)}
		total += columns[i].Width + 2
	}
	if m.width > 0 {
		total = min(total, m.width)
	}

	// Columns may shrink, so rows go first
	cursor := m.table.Cursor()
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	m.table.SetWidth(total)
	if len(rows) > 0 {
		m.table.SetCursor(min(max(cursor, 0), len(rows)-1))
	}

	m.clampBoard()
}

func selectMark(on, some bool) string {
	switch {
	case on:
		return "[x]"
	case some:
		return "[-]"
	}
	return "[ ]"
}

func headerTitle(col core.Column, sort grid.SortState, focused bool) string {
	title := columnTitle(col)
	if sort.Column == col.Key {
		switch sort.Direction {
		case grid.SortAsc:
			title += " ^"
		case grid.SortDesc:
			title += " v"
		}
	}
	if focused {
		title = "[" + title + "]"
	}
	return title
}

func columnTitle(col core.Column) string {
	if col.Header != "" {
		return col.Header
	}
	return col.Key
}

// filterText returns the current filter on column as it is typed.
func filterText(filters []grid.Filter, column string) string {
	for _, f := range filters {
		if f.Column != column {
			continue
		}
		if r, ok := backend.AsRange(f.Value); ok {
			return editText(r.Lo) + ".." + editText(r.Hi)
		}
		return editText(f.Value)
	}
	return ""
}

/* ----------------------------------------
	BOARD VIEW
---------------------------------------- */

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	board := m.view.Board
	h := m.handler

	switch msg.String() {
	case "q", "esc":
		m.closeGrid()
		return m, nil

	case "v":
		return m, h.ToggleKanban()

	case "r":
		return m, h.RefreshBoard()

	case "left", "h":
		if m.lane > 0 {
			m.lane--
			m.card = 0
		}

	case "right", "l":
		if m.lane < len(board.Columns)-1 {
			m.lane++
			m.card = 0
		}

	case "up", "k":
		if m.card > 0 {
			m.card--
		}

	case "down", "j":
		if m.card < len(m.laneCards())-1 {
			m.card++
		}

	case "[", "]":
		cards := m.laneCards()
		if m.card >= len(cards) {
			return m, nil
		}
		target := m.lane - 1
		if msg.String() == "]" {
			target = m.lane + 1
		}
		if target < 0 || target >= len(board.Columns) {
			return m, nil
		}
		card := cards[m.card]
		m.lane, m.card = target, 0
		return m, h.MoveCard(card.ID, board.Columns[target].ID)
	}
	return m, nil
}

func (m Model) laneCards() []grid.Card {
	cols := m.view.Board.Columns
	if m.lane < 0 || m.lane >= len(cols) {
		return nil
	}
	return m.view.Board.CardsIn(cols[m.lane].ID)
}

func (m *Model) clampBoard() {
	if m.lane >= len(m.view.Board.Columns) {
		m.lane = max(len(m.view.Board.Columns)-1, 0)
	}
	if n := len(m.laneCards()); m.card >= n {
		m.card = max(n-1, 0)
	}
}

// editText renders a stored value the way it is typed back in.
func editText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
