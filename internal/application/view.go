package application

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/datagrid/internal/grid"
)

const (
	gridHelp  = "←→ column  n/p page  s sort  / search  f filter  F clear  e edit  c commit  x discard  space select  a all  d delete  b bulk  + add  w save filter  o filters  t column  v board  E export  I import  P preview  q back"
	boardHelp = "←→ lane  ↑↓ card  [ ] move card  r refresh  v table  q back"
	menuHelp  = "↑↓ move  enter select  esc back  q quit"
)

func (m Model) View() string {
	var sb strings.Builder

	switch m.mode {
	case modeMenu:
		sb.WriteString(m.menuView())
	default:
		sb.WriteString(m.gridView())
	}

	sb.WriteString("\n")
	if m.status != "" {
		if m.statusErr {
			sb.WriteString(errorStyle.Render(m.status))
		} else {
			sb.WriteString(doneStyle.Render(m.status))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) menuView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.menu.Title))
	sb.WriteString("\n\n")

	for i, item := range m.menu.Items {
		cursor := "  "
		label := item.Label
		if i == m.cursor {
			cursor = "> "
			label = cursorStyle.Render(label)
		}
		sb.WriteString(cursor + label + "\n")
	}

	sb.WriteString("\n" + subtleStyle.Render(menuHelp) + "\n")
	return sb.String()
}

func (m Model) gridView() string {
	v := m.view
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(tableLabel(v.Table)))
	if v.Table.Info.Description != "" {
		sb.WriteString("  " + subtleStyle.Render(v.Table.Info.Description))
	}
	sb.WriteString("\n")
	sb.WriteString(m.summaryLine())
	sb.WriteString("\n\n")

	if v.Kanban {
		sb.WriteString(m.boardView())
	} else {
		sb.WriteString(m.table.View())
		sb.WriteString("\n")
		sb.WriteString(m.detailLine())
	}
	sb.WriteString("\n")

	switch m.mode {
	case modeInput:
		sb.WriteString(inputBoxStyle.Render(m.inputLabel + ": " + m.input.View()))
		sb.WriteString("\n" + subtleStyle.Render("enter confirm  esc cancel"))
	case modeFilters:
		sb.WriteString(m.filtersView())
	default:
		help := gridHelp
		if v.Kanban {
			help = boardHelp
		}
		sb.WriteString(subtleStyle.Render(help))
	}
	sb.WriteString("\n")
	return sb.String()
}

// summaryLine shows paging, sort, search, filters and pending state.
func (m Model) summaryLine() string {
	v := m.view
	p := v.Pagination

	parts := []string{fmt.Sprintf("Page %d of %d (%d rows)", p.PageIndex+1, max(p.TotalPages, 1), p.TotalItems)}
	if v.Sort.Direction != grid.SortNone {
		parts = append(parts, fmt.Sprintf("sort %s %s", v.Sort.Column, v.Sort.Direction))
	}
	if v.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", v.Search))
	}
	for _, f := range v.Filters {
		parts = append(parts, fmt.Sprintf("%s=%s", f.Column, filterText(v.Filters, f.Column)))
	}
	if v.SelectedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", v.SelectedCount))
	}
	line := subtleStyle.Render(strings.Join(parts, "  |  "))

	if v.Pending > 0 {
		line += "  " + pendingStyle.Render(fmt.Sprintf("%d unsaved change(s)", v.Pending))
	}
	if v.Loading {
		line += "  " + subtleStyle.Render("loading...")
	}
	return line
}

// detailLine shows the focused cell in full, coloured for status columns.
func (m Model) detailLine() string {
	row, ok := m.cursorRow()
	col, cok := m.focusedColumn()
	if !ok || !cok {
		if len(m.view.Rows) == 0 && !m.view.Loading {
			return subtleStyle.Render("No rows")
		}
		return ""
	}

	value := m.ctrl.Cell(row, col)
	if grid.IsStatusColumn(col.Key) {
		value = statusText(value)
	}
	line := columnTitle(col) + ": " + value
	if m.ctrl.IsPending(row, col.Key) {
		line += " " + pendingStyle.Render("(unsaved)")
	}
	return line
}

func (m Model) boardView() string {
	board := m.view.Board
	if len(board.Columns) == 0 {
		return subtleStyle.Render("Board is empty")
	}

	lanes := make([]string, len(board.Columns))
	for i, col := range board.Columns {
		var sb strings.Builder
		cards := board.CardsIn(col.ID)
		sb.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", col.Title, len(cards))))
		for j, card := range cards {
			content := grid.Truncate(card.Content, 24)
			if content == "" {
				content = grid.Placeholder
			}
			if i == m.lane && j == m.card {
				content = selectedCard.Render(content)
			}
			sb.WriteString("\n" + content)
		}

		style := laneStyle
		if i == m.lane {
			style = activeLane
		}
		lanes[i] = style.Render(sb.String())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, lanes...)
}

func (m Model) filtersView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Saved filters") + "\n")
	for i, f := range m.filters {
		cursor := "  "
		label := f.Name
		if i == m.filterCursor {
			cursor = "> "
			label = cursorStyle.Render(label)
		}
		sb.WriteString(cursor + label + "\n")
	}
	sb.WriteString(subtleStyle.Render("enter apply  esc close"))
	return sb.String()
}
