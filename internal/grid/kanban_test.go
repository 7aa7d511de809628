package grid

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/JonMunkholm/datagrid/internal/core"
)

func taskBoardConfig() core.KanbanConfig {
	return core.KanbanConfig{
		Enabled:        true,
		Identification: "taskId",
		ColumnContent:  "state",
		ColumnIDName:   "title",
		Columns:        []string{"todo", "done"},
	}
}

func TestBuildBoard(t *testing.T) {
	rows := []core.Row{{"taskId": float64(5), "state": "todo", "title": "Fix bug"}}

	board := BuildBoard(taskBoardConfig(), rows)

	if len(board.Columns) != 2 || board.Columns[0] != (BoardColumn{ID: "todo", Title: "todo"}) || board.Columns[1].ID != "done" {
		t.Errorf("Columns = %+v", board.Columns)
	}
	want := Card{ID: float64(5), ColumnID: "todo", Content: "Fix bug"}
	if len(board.Cards) != 1 || board.Cards[0] != want {
		t.Errorf("Cards = %+v, want [%+v]", board.Cards, want)
	}
	if got := board.CardsIn("todo"); len(got) != 1 {
		t.Errorf("CardsIn(todo) = %v", got)
	}
	if got := board.CardsIn("done"); len(got) != 0 {
		t.Errorf("CardsIn(done) = %v, want none", got)
	}
}

func TestLoadBoard_SelectsTopLevelColumns(t *testing.T) {
	fb := newFakeBackend(core.Row{"id": float64(1), "meta": map[string]any{"state": "done"}, "title": "Ship"})
	cfg := core.KanbanConfig{Identification: "id", ColumnContent: "meta.state", ColumnIDName: "title", Columns: []string{"todo", "done"}}

	board, err := LoadBoard(context.Background(), fb, "tasks", cfg)
	if err != nil {
		t.Fatalf("LoadBoard = %v", err)
	}
	if !slices.Equal(fb.selects[0], []string{"id", "meta", "title"}) {
		t.Errorf("selected columns = %v", fb.selects[0])
	}
	if board.Cards[0].ColumnID != "done" {
		t.Errorf("card column = %q, want done", board.Cards[0].ColumnID)
	}
}

func TestMoveCard(t *testing.T) {
	fb := newFakeBackend(core.Row{"taskId": float64(5), "state": "todo", "title": "Fix bug"})
	cfg := taskBoardConfig()

	if err := MoveCard(context.Background(), fb, "tasks", cfg, float64(5), "done"); err != nil {
		t.Fatalf("MoveCard = %v", err)
	}
	got := fb.updateWhere[0]
	if got.column != "taskId" || got.value != float64(5) || got.patch["state"] != "done" {
		t.Errorf("UpdateWhere = %+v", got)
	}

	if err := MoveCard(context.Background(), fb, "tasks", cfg, float64(5), "archived"); !errors.Is(err, ErrUnknownBoardColumn) {
		t.Errorf("MoveCard(archived) = %v, want ErrUnknownBoardColumn", err)
	}
	if err := MoveCard(context.Background(), fb, "tasks", cfg, nil, "done"); !errors.Is(err, core.ErrMissingID) {
		t.Errorf("MoveCard(nil) = %v, want ErrMissingID", err)
	}
	if len(fb.updateWhere) != 1 {
		t.Errorf("UpdateWhere calls = %d, want 1", len(fb.updateWhere))
	}
}
