package core

import (
	"reflect"
	"testing"
)

func TestGetPath(t *testing.T) {
	row := Row{
		"id":      7,
		"name":    "Ada",
		"address": map[string]any{"city": "London", "geo": map[string]any{"lat": 51.5}},
		"tags":    []any{"a", "b"},
	}

	tests := []struct {
		path string
		want any
	}{
		{"name", "Ada"},
		{"address.city", "London"},
		{"address.geo.lat", 51.5},
		{"address.zip", nil},
		{"missing.deep", nil},
		{"name.first", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := GetPath(row, tt.path); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSetPath(t *testing.T) {
	row := Row{"name": "Ada", "address": map[string]any{"city": "London"}}

	SetPath(row, "address.city", "Paris")
	SetPath(row, "address.zip", "75001")
	SetPath(row, "meta.source", "import")
	SetPath(row, "name", "Grace")

	want := Row{
		"name":    "Grace",
		"address": map[string]any{"city": "Paris", "zip": "75001"},
		"meta":    map[string]any{"source": "import"},
	}
	if !reflect.DeepEqual(row, want) {
		t.Errorf("row = %#v, want %#v", row, want)
	}
}

func TestSetPath_ReplacesScalarIntermediate(t *testing.T) {
	row := Row{"address": "unknown"}
	SetPath(row, "address.city", "Oslo")

	if got := GetPath(row, "address.city"); got != "Oslo" {
		t.Errorf("address.city = %v, want Oslo", got)
	}
}

func TestRow_Clone(t *testing.T) {
	orig := Row{
		"id":      1,
		"address": map[string]any{"city": "London"},
		"items":   []any{map[string]any{"qty": 1}},
	}
	clone := orig.Clone()

	SetPath(clone, "address.city", "Paris")
	clone["items"].([]any)[0].(map[string]any)["qty"] = 5

	if got := GetPath(orig, "address.city"); got != "London" {
		t.Errorf("original address.city = %v, want London", got)
	}
	if got := orig["items"].([]any)[0].(map[string]any)["qty"]; got != 1 {
		t.Errorf("original qty = %v, want 1", got)
	}
	if Row(nil).Clone() != nil {
		t.Error("nil Clone should be nil")
	}
}

func TestRow_ID(t *testing.T) {
	tests := []struct {
		name   string
		row    Row
		want   any
		wantOK bool
	}{
		{"id", Row{"id": 5}, 5, true},
		{"underscore id", Row{"_id": "abc"}, "abc", true},
		{"id wins", Row{"id": 1, "_id": 2}, 1, true},
		{"nil id falls through", Row{"id": nil, "_id": 9}, 9, true},
		{"empty string", Row{"id": ""}, nil, false},
		{"none", Row{"name": "x"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.row.ID()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ID() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSameRecord(t *testing.T) {
	if !SameRecord(Row{"id": float64(3)}, Row{"id": 3}) {
		t.Error("float64(3) and 3 should be the same record")
	}
	if SameRecord(Row{"id": 3}, Row{"id": 4}) {
		t.Error("3 and 4 should differ")
	}
	if SameRecord(Row{}, Row{}) {
		t.Error("rows without ids are never the same record")
	}
}

func TestIsDateKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"created_at", true},
		{"updatedAt", true},
		{"due_date", true},
		{"StartDate", true},
		{"status", false},
		{"price", false},
	}
	for _, tt := range tests {
		if got := IsDateKey(tt.key); got != tt.want {
			t.Errorf("IsDateKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
