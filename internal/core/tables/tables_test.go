package tables

import (
	"testing"

	"github.com/JonMunkholm/datagrid/internal/core"
)

func TestBuiltinTablesRegistered(t *testing.T) {
	for _, key := range []string{"users", "products", "invoices", "tasks"} {
		def, ok := core.Get(key)
		if !ok {
			t.Errorf("table %q not registered", key)
			continue
		}
		if err := core.ValidateDefinition(def); err != nil {
			t.Errorf("table %q invalid: %v", key, err)
		}
	}
}

func TestTasksKanban(t *testing.T) {
	def, _ := core.Get("tasks")
	if !def.Kanban.Enabled {
		t.Fatal("tasks kanban disabled")
	}
	col, ok := def.Column(def.Kanban.ColumnContent)
	if !ok {
		t.Fatalf("kanban column %q missing", def.Kanban.ColumnContent)
	}
	if len(col.Options) != len(def.Kanban.Columns) {
		t.Errorf("status options = %d, kanban columns = %d", len(col.Options), len(def.Kanban.Columns))
	}
}

func TestNormalizeUsState(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"California", "CA"},
		{"new york", "NY"},
		{" tx ", "TX"},
		{"District of Columbia", "DC"},
		{"Ontario", "Ontario"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUsState(tt.input); got != tt.want {
			t.Errorf("NormalizeUsState(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestStateOptions(t *testing.T) {
	opts := stateOptions()
	if len(opts) != len(usStates) {
		t.Fatalf("len = %d, want %d", len(opts), len(usStates))
	}
	if opts[0].Value != "AL" || opts[0].Label != "Alabama" {
		t.Errorf("first option = %+v", opts[0])
	}
}
