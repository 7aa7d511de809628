package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCell(t *testing.T) {
	statusCol := Column{Key: "status", Type: ColumnSelect, Options: []Option{
		{Value: "active", Label: "Active"},
		{Value: "inactive", Label: "Inactive"},
	}}

	tests := []struct {
		name    string
		col     Column
		raw     string
		want    any
		wantErr bool
	}{
		{"text passthrough", Column{Key: "name", Type: ColumnText}, "Ada", "Ada", false},
		{"empty text stays empty", Column{Key: "name", Type: ColumnText}, "", "", false},
		{"number", Column{Key: "price", Type: ColumnNumber}, "$19.99", 19.99, false},
		{"bad number", Column{Key: "price", Type: ColumnNumber}, "cheap", nil, true},
		{"empty number is nil", Column{Key: "price", Type: ColumnNumber}, "", nil, false},
		{"boolean", Column{Key: "active", Type: ColumnBoolean}, "yes", true, false},
		{"bad boolean", Column{Key: "active", Type: ColumnBoolean}, "perhaps", nil, true},
		{"date type", Column{Key: "joined", Type: ColumnDate}, "2024-01-15", "2024-01-15T00:00:00.000Z", false},
		{"date by key", Column{Key: "created_at", Type: ColumnText}, "2024-01-15", "2024-01-15T00:00:00.000Z", false},
		{"bad date", Column{Key: "due_date"}, "someday", nil, true},
		{"select allowed", statusCol, "active", "active", false},
		{"select rejected", statusCol, "archived", nil, true},
		{"select without options", Column{Key: "product", Type: ColumnSelect}, "12", "12", false},
		{"normalizer", Column{Key: "state", Normalize: strings.ToUpper}, "ca", "CA", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCell(tt.col, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCell(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil {
				var ve ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("error %T is not a ValidationError", err)
				} else if ve.Field != tt.col.Key {
					t.Errorf("ValidationError.Field = %q, want %q", ve.Field, tt.col.Key)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseCell(%q) = %v (%T), want %v (%T)", tt.raw, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestRuleValidator_Check(t *testing.T) {
	rules := NewRuleValidator()

	tests := []struct {
		name    string
		col     Column
		value   any
		wantMsg string
	}{
		{"no rule", Column{Key: "name"}, "", ""},
		{"required ok", Column{Key: "name", Validation: "required"}, "Ada", ""},
		{"required missing", Column{Key: "name", Validation: "required"}, "", "value is required"},
		{"required nil", Column{Key: "name", Validation: "required"}, nil, "value is required"},
		{"email type implies rule", Column{Key: "email", Type: ColumnEmail}, "not-an-email", "invalid email address"},
		{"email type empty allowed", Column{Key: "email", Type: ColumnEmail}, "", ""},
		{"email ok", Column{Key: "email", Type: ColumnEmail}, "ada@example.com", ""},
		{"min length", Column{Key: "name", Validation: "min=3"}, "Al", "failed rule min=3"},
		{"number bound", Column{Key: "qty", Validation: "gte=1"}, float64(0), "failed rule gte=1"},
		{"oneof", Column{Key: "size", Validation: "oneof=s m l"}, "xl", "value must be one of: s, m, l"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rules.Check(tt.col, tt.value)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("Check = %v, want nil", err)
				}
				return
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Check = %v, want ValidationError", err)
			}
			if ve.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", ve.Message, tt.wantMsg)
			}
		})
	}
}

func TestValidateCell(t *testing.T) {
	col := Column{Key: "price", Type: ColumnNumber, Validation: "gte=0"}

	if v, err := ValidateCell(col, "12.5"); err != nil || v != 12.5 {
		t.Errorf("ValidateCell(12.5) = %v, %v", v, err)
	}
	if _, err := ValidateCell(col, "-1"); err == nil {
		t.Error("ValidateCell(-1) should fail gte=0")
	}
	if _, err := ValidateCell(col, "x"); err == nil {
		t.Error("ValidateCell(x) should fail parsing")
	}
}

func TestValidateDefinition(t *testing.T) {
	valid := TableDefinition{
		Info:    TableInfo{Key: "tasks"},
		Columns: []Column{{Key: "id"}, {Key: "title"}, {Key: "status"}},
		Search:  SearchConfig{Enabled: true, Columns: []string{"title"}},
		Kanban: KanbanConfig{
			Enabled: true, Identification: "id", ColumnContent: "status",
			ColumnIDName: "title", Columns: []string{"todo", "done"},
		},
	}
	if err := ValidateDefinition(valid); err != nil {
		t.Fatalf("ValidateDefinition(valid) = %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*TableDefinition)
		wantSub string
	}{
		{"missing key", func(d *TableDefinition) { d.Info.Key = "" }, "info.key is required"},
		{"no columns", func(d *TableDefinition) { d.Columns = nil }, "at least one column"},
		{"duplicate column", func(d *TableDefinition) { d.Columns = append(d.Columns, Column{Key: "title"}) }, "duplicate key"},
		{"unknown type", func(d *TableDefinition) { d.Columns[1].Type = "color" }, "unknown type"},
		{"bad rule", func(d *TableDefinition) { d.Columns[1].Validation = "frobnicate" }, "invalid validation rule"},
		{"bad search column", func(d *TableDefinition) { d.Search.Columns = []string{"nope"} }, "search column"},
		{"bad select mode", func(d *TableDefinition) { d.Select.Mode = "many" }, "select mode"},
		{"kanban incomplete", func(d *TableDefinition) { d.Kanban.ColumnContent = "" }, "kanban requires identification"},
		{"kanban no columns", func(d *TableDefinition) { d.Kanban.Columns = nil }, "at least one column"},
		{"populate incomplete", func(d *TableDefinition) { d.Populate = []PopulateConfig{{Field: "product"}} }, "populate requires"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid
			def.Columns = append([]Column(nil), valid.Columns...)
			tt.mutate(&def)

			err := ValidateDefinition(def)
			if err == nil {
				t.Fatal("ValidateDefinition = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err, tt.wantSub)
			}
		})
	}
}
