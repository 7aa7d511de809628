package application

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/datagrid/internal/grid"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	laneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(28)
	activeLane    = laneStyle.BorderForeground(lipgloss.Color("13"))
	selectedCard  = lipgloss.NewStyle().Reverse(true)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

// statusColors maps grid status classes to terminal colours.
var statusColors = map[string]lipgloss.Color{
	grid.StyleSuccess: lipgloss.Color("10"),
	grid.StyleWarning: lipgloss.Color("11"),
	grid.StyleDanger:  lipgloss.Color("9"),
	grid.StyleInfo:    lipgloss.Color("12"),
	grid.StyleMuted:   lipgloss.Color("8"),
}

// statusText renders a status value in its colour. Values without a style
// are returned unchanged.
func statusText(value string) string {
	color, ok := statusColors[grid.StatusStyle(value)]
	if !ok {
		return value
	}
	return lipgloss.NewStyle().Foreground(color).Render(value)
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	return s
}
