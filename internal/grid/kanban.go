package grid

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

// ErrUnknownBoardColumn is returned when a card is moved to a column the
// board does not have.
var ErrUnknownBoardColumn = errors.New("unknown board column")

// Card is one row on the board.
type Card struct {
	ID       any    `json:"id"`
	ColumnID string `json:"columnId"`
	Content  string `json:"content"`
}

// BoardColumn is one lane of the board.
type BoardColumn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Board is a kanban projection of a table.
type Board struct {
	Columns []BoardColumn `json:"columns"`
	Cards   []Card        `json:"tasks"`
}

// CardsIn returns the cards in column id, in row order.
func (b Board) CardsIn(id string) []Card {
	var out []Card
	for _, c := range b.Cards {
		if c.ColumnID == id {
			out = append(out, c)
		}
	}
	return out
}

// BuildBoard maps rows to cards using cfg's field names. Every configured
// column value becomes a lane titled by the value itself.
func BuildBoard(cfg core.KanbanConfig, rows []core.Row) Board {
	board := Board{
		Columns: make([]BoardColumn, len(cfg.Columns)),
		Cards:   make([]Card, 0, len(rows)),
	}
	for i, c := range cfg.Columns {
		board.Columns[i] = BoardColumn{ID: c, Title: c}
	}
	for _, row := range rows {
		board.Cards = append(board.Cards, Card{
			ID:       core.GetPath(row, cfg.Identification),
			ColumnID: fieldString(core.GetPath(row, cfg.ColumnContent)),
			Content:  fieldString(core.GetPath(row, cfg.ColumnIDName)),
		})
	}
	return board
}

func fieldString(v any) string {
	if v == nil {
		return ""
	}
	return rawString(v)
}

// LoadBoard reads the fields the board needs from every row of endpoint.
func LoadBoard(ctx context.Context, b backend.Backend, endpoint string, cfg core.KanbanConfig) (Board, error) {
	columns := []string{cfg.Identification, cfg.ColumnContent, cfg.ColumnIDName}
	rows, err := b.Select(ctx, endpoint, topLevel(columns))
	if err != nil {
		return Board{}, &FetchError{Endpoint: endpoint, Err: err}
	}
	return BuildBoard(cfg, rows), nil
}

// MoveCard sets the column field of the row identified by cardID to column.
func MoveCard(ctx context.Context, b backend.Backend, endpoint string, cfg core.KanbanConfig, cardID any, column string) error {
	if !slices.Contains(cfg.Columns, column) {
		return fmt.Errorf("%w: %q", ErrUnknownBoardColumn, column)
	}
	if cardID == nil {
		return core.ErrMissingID
	}
	patch := core.Row{}
	core.SetPath(patch, cfg.ColumnContent, column)
	return b.UpdateWhere(ctx, endpoint, cfg.Identification, cardID, patch)
}

// topLevel reduces dot-paths to their root column, deduplicated.
func topLevel(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		root, _, _ := strings.Cut(p, ".")
		if !slices.Contains(out, root) {
			out = append(out, root)
		}
	}
	return out
}
