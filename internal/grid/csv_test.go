package grid

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

func TestImport(t *testing.T) {
	input := "\ufeffID,Name,status,Price,unknown\n" +
		"1,Ada,active,\"$1,200.50\",x\n" +
		",Grace,inactive,20,y\n" +
		",Linus,archived,5,z\n" +
		",,,,\n" +
		",Ken,active,cheap,w\n" +
		",Rob,active,7,v\n"

	fb := newFakeBackend()
	result, err := Import(context.Background(), fb, testTable(), strings.NewReader(input), 2)
	if err != nil {
		t.Fatalf("Import = %v", err)
	}

	if result.TotalRows != 5 {
		t.Errorf("TotalRows = %d, want 5", result.TotalRows)
	}
	if result.Inserted != 3 || result.Skipped != 2 {
		t.Errorf("Inserted, Skipped = %d, %d, want 3, 2", result.Inserted, result.Skipped)
	}
	if len(result.FailedRows) != 2 || result.FailedRows[0].LineNumber != 4 || result.FailedRows[1].LineNumber != 6 {
		t.Errorf("FailedRows = %+v", result.FailedRows)
	}

	if len(fb.upserts) != 2 {
		t.Fatalf("upsert batches = %d, want 2", len(fb.upserts))
	}
	first := fb.upserts[0][0]
	if first["id"] != "1" || first["name"] != "Ada" || first["price"] != 1200.5 {
		t.Errorf("first row = %v", first)
	}
	if _, ok := fb.upserts[0][1]["id"]; ok {
		t.Errorf("row without id should insert: %v", fb.upserts[0][1])
	}
	if _, ok := first["unknown"]; ok {
		t.Error("unknown header should be ignored")
	}
}

func TestImport_Errors(t *testing.T) {
	fb := newFakeBackend()

	if _, err := Import(context.Background(), fb, testTable(), strings.NewReader(""), 10); err != ErrEmptyFile {
		t.Errorf("Import of empty file = %v, want ErrEmptyFile", err)
	}
	if _, err := Import(context.Background(), fb, testTable(), strings.NewReader("colour,shape\nred,round\n"), 10); err != ErrNoHeader {
		t.Errorf("Import with no known headers = %v, want ErrNoHeader", err)
	}

	errGone := errors.New("disk gone")
	src := io.MultiReader(strings.NewReader("name\nAda\n"), iotest.ErrReader(errGone))
	if _, err := Import(context.Background(), fb, testTable(), src, 10); !errors.Is(err, errGone) {
		t.Errorf("Import with failing reader = %v, want %v", err, errGone)
	}
}

func TestExport(t *testing.T) {
	var rows []core.Row
	for _, name := range []string{"Ada", "Grace", "Linus"} {
		rows = append(rows, core.Row{"id": float64(len(rows) + 1), "name": name, "price": 9.5})
	}
	rows[0]["address"] = map[string]any{"city": "London"}

	fb := newFakeBackend(rows...)
	var buf bytes.Buffer

	n, err := Export(context.Background(), fb, testTable(), backend.Query{Page: 7, PageSize: 2}, &buf)
	if err != nil {
		t.Fatalf("Export = %v", err)
	}
	if n != 3 {
		t.Errorf("written = %d, want 3", n)
	}
	if fb.queryCount() != 1 {
		t.Errorf("queries = %d, want one page of %d", fb.queryCount(), ExportPageSize)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want header + 3", len(records))
	}
	if records[0][0] != "id" || records[0][5] != "address.city" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][1] != "Ada" || records[1][3] != "9.5" || records[1][5] != "London" {
		t.Errorf("first record = %v", records[1])
	}
}

func TestExportValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{float64(3), "3"},
		{true, "true"},
		{map[string]any{"a": float64(1)}, `{"a":1}`},
	}
	for _, tt := range tests {
		if got := exportValue(tt.in); got != tt.want {
			t.Errorf("exportValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
