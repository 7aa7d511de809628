package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/config"
	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/grid"
	"github.com/JonMunkholm/datagrid/internal/handler"
)

// TablesTimeout bounds the initial table listing.
var TablesTimeout = 15 * time.Second

type mode int

const (
	modeMenu mode = iota
	modeGrid
	modeInput
	modeFilters
)

// TableSource lists the tables a server exposes. rest.Client implements it.
type TableSource interface {
	Tables(ctx context.Context) ([]core.TableDefinition, error)
}

type tablesMsg []core.TableDefinition

type openTableMsg struct{ def core.TableDefinition }

// changedMsg and noticeMsg name their controller so messages from a table
// that was closed in the meantime are dropped.
type changedMsg struct{ ctrl *grid.Controller }

type noticeMsg struct {
	ctrl   *grid.Controller
	notice grid.Notice
}

// Model is the terminal client: a menu of tables and a grid view of the
// open table.
type Model struct {
	cfg     config.ClientConfig
	backend backend.Backend
	source  TableSource
	format  *grid.Formatter
	logger  *slog.Logger

	menu   *Menu
	cursor int
	mode   mode

	ctrl    *grid.Controller
	handler *handler.GridHandler
	notices chan grid.Notice
	view    grid.View
	table   table.Model
	col     int // Focused column of the table
	lane    int // Focused board column
	card    int // Focused card within the lane

	input       textinput.Model
	inputKind   inputKind
	inputLabel  string
	inputColumn string
	inputOrig   string // Restored when a search is abandoned

	filters      []core.SavedFilter
	filterCursor int

	status    string
	statusErr bool
	width     int
	height    int
}

// New creates the client model. b serves the grids; source lists tables.
func New(cfg config.ClientConfig, b backend.Backend, source TableSource, logger *slog.Logger) (Model, error) {
	opts, err := grid.ParseFormatterOptions(cfg.Grid.Locale, cfg.Grid.Currency, cfg.Grid.TimeZone)
	if err != nil {
		return Model{}, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 48

	return Model{
		cfg:     cfg,
		backend: b,
		source:  source,
		format:  grid.NewFormatter(opts...),
		logger:  logger,
		menu:    buildMenuTree(cfg, nil),
		table: table.New(
			table.WithFocused(true),
			table.WithStyles(tableStyles()),
			table.WithHeight(12),
		),
		input: ti,
	}, nil
}

// Init lists the server's tables.
func (m Model) Init() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), TablesTimeout)
		defer cancel()

		tables, err := source.Tables(ctx)
		if err != nil {
			return handler.ErrMsg{Err: fmt.Errorf("list tables: %w", err)}
		}
		return tablesMsg(tables)
	}
}

// Close stops the open grid, if any.
func (m *Model) Close() {
	m.closeGrid()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil

	case tablesMsg:
		m.menu = buildMenuTree(m.cfg, msg)
		m.cursor = 0
		for _, def := range msg {
			if def.Info.Key == m.cfg.Table {
				return m.open(def)
			}
		}
		return m, nil

	case openTableMsg:
		return m.open(msg.def)

	case changedMsg:
		if msg.ctrl != m.ctrl || m.ctrl == nil {
			return m, nil
		}
		m.refresh()
		return m, waitForEvent(m.ctrl, m.notices)

	case noticeMsg:
		if msg.ctrl != m.ctrl || m.ctrl == nil {
			return m, nil
		}
		m.setNotice(msg.notice)
		return m, waitForEvent(m.ctrl, m.notices)

	case handler.FiltersMsg:
		if len(msg) == 0 {
			m.setStatus("No saved filters for this table")
			return m, nil
		}
		m.filters = msg
		m.filterCursor = 0
		m.mode = modeFilters
		return m, nil

	case handler.DoneMsg:
		if msg != "" {
			m.setStatus(string(msg))
		}
		m.refresh()
		return m, nil

	case handler.WdMsg:
		m.setStatus(string(msg))
		return m, nil

	case handler.ErrMsg:
		m.setError(msg.Err)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.closeGrid()
			return m, tea.Quit
		}
		switch m.mode {
		case modeMenu:
			return m.updateMenu(msg)
		case modeGrid:
			if m.view.Kanban {
				return m.updateBoard(msg)
			}
			return m.updateGrid(msg)
		case modeInput:
			return m.updateInput(msg)
		case modeFilters:
			return m.updateFilters(msg)
		}
	}
	return m, nil
}

/* ----------------------------------------
	MENU
---------------------------------------- */

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}

	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.menu = m.menu.Parent
			m.cursor = 0
		}

	case "enter":
		item := m.menu.Items[m.cursor]
		if item.Submenu != nil {
			m.menu = item.Submenu
			m.cursor = 0
			return m, nil
		}
		if item.Action != nil {
			return m, item.Action()
		}
	}
	return m, nil
}

/* ----------------------------------------
	GRID LIFECYCLE
---------------------------------------- */

// open closes the current grid and starts one for def.
func (m Model) open(def core.TableDefinition) (tea.Model, tea.Cmd) {
	m.closeGrid()

	notices := make(chan grid.Notice, 16)
	ctrl, err := grid.New(grid.Config{
		Backend:   m.backend,
		Table:     def,
		Formatter: m.format,
		Notifier: grid.NotifierFunc(func(n grid.Notice) {
			select {
			case notices <- n:
			default:
			}
		}),
		Logger:            m.logger,
		UserID:            m.cfg.UserID,
		SearchDebounce:    m.cfg.Grid.SearchDebounce,
		RequestTimeout:    m.cfg.Grid.RequestTimeout,
		CommitConcurrency: m.cfg.Grid.CommitConcurrency,
	})
	if err != nil {
		m.setError(err)
		return m, nil
	}

	m.ctrl = ctrl
	m.notices = notices
	m.handler = handler.NewGridHandler(ctrl, m.cfg.TransferDir)
	m.mode = modeGrid
	m.col, m.lane, m.card = 0, 0, 0
	m.status = ""
	m.table.SetCursor(0)
	m.refresh()

	m.logger.Info("table opened", "table", def.Info.Key)
	return m, tea.Batch(m.handler.Init(), waitForEvent(ctrl, notices))
}

func (m *Model) closeGrid() {
	if m.ctrl == nil {
		return
	}
	m.ctrl.Close()
	m.ctrl = nil
	m.handler = nil
	m.notices = nil
	m.view = grid.View{}
	m.filters = nil
	m.mode = modeMenu
}

// waitForEvent blocks until ctrl changes or raises a notice. It returns
// nil once ctrl is closed.
func waitForEvent(ctrl *grid.Controller, notices <-chan grid.Notice) tea.Cmd {
	return func() tea.Msg {
		select {
		case _, ok := <-ctrl.Changes():
			if !ok {
				return nil
			}
			return changedMsg{ctrl: ctrl}
		case n := <-notices:
			return noticeMsg{ctrl: ctrl, notice: n}
		}
	}
}

/* ----------------------------------------
	STATUS LINE
---------------------------------------- */

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	if !core.IsUserFacing(err) {
		m.logger.Error("unexpected error", "error", err)
	}
	msg := core.MapError(err)
	text := msg.Message
	var valErr core.ValidationError
	if errors.As(err, &valErr) {
		text = valErr.Error()
	}
	m.status = fmt.Sprintf("%s (%s)", text, msg.Code)
	m.statusErr = true
}

func (m *Model) setNotice(n grid.Notice) {
	m.status = n.Message
	m.statusErr = n.Level >= grid.LevelWarning
	if m.statusErr && n.Code != "" && !strings.Contains(n.Message, n.Code) {
		m.status += " (" + n.Code + ")"
	}
}
