package grid

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/datagrid/internal/backend"
)

func TestPreview(t *testing.T) {
	input := "id,name,status,price\n" +
		"1,Ada,active,15\n" +
		"2,Grace,inactive,20\n" +
		"1,Ada L,active,10\n" +
		",Linus,active,5\n" +
		",Ken,archived,1\n"

	fb := newFakeBackend(testRows()...)
	result, err := Preview(context.Background(), fb, testTable(), strings.NewReader(input), 0)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	want := PreviewSummary{TotalRows: 5, NewRows: 1, UpdateRows: 3, ErrorRows: 1, DuplicateInFile: 1}
	if result.Summary != want {
		t.Errorf("Summary = %+v, want %+v", result.Summary, want)
	}
	if got := result.String(); got != "5 row(s): 1 new, 3 update(s), 1 error(s), 1 duplicate id(s)" {
		t.Errorf("String() = %q", got)
	}

	if len(result.NewRowSamples) != 1 || result.NewRowSamples[0].LineNumber != 5 || result.NewRowSamples[0].Values["name"] != "Linus" {
		t.Errorf("NewRowSamples = %+v", result.NewRowSamples)
	}
	if len(result.ErrorSamples) != 1 || result.ErrorSamples[0].LineNumber != 6 {
		t.Errorf("ErrorSamples = %+v", result.ErrorSamples)
	}
	if len(result.DuplicateSamples) != 1 {
		t.Fatalf("DuplicateSamples = %+v", result.DuplicateSamples)
	}
	if dup := result.DuplicateSamples[0]; dup.RowKey != "1" || len(dup.LineNumbers) != 2 || dup.LineNumbers[1] != 4 {
		t.Errorf("duplicate = %+v, want id 1 on lines 2 and 4", dup)
	}

	if len(result.UpdateDiffs) != 3 {
		t.Fatalf("UpdateDiffs = %d, want 3", len(result.UpdateDiffs))
	}
	first := result.UpdateDiffs[0]
	if first.RowKey != "1" || len(first.Changed) != 1 || first.Changed[0] != "price" {
		t.Errorf("first diff = %+v, want only price changed", first)
	}
	if first.Current["price"] != "10" || first.Incoming["price"] != "15" {
		t.Errorf("price = %q -> %q, want 10 -> 15", first.Current["price"], first.Incoming["price"])
	}
	if second := result.UpdateDiffs[1]; len(second.Changed) != 0 {
		t.Errorf("unchanged row reported changes: %v", second.Changed)
	}

	if len(fb.upserts) != 0 {
		t.Error("Preview wrote rows")
	}
}

func TestPreview_MissingRow(t *testing.T) {
	fb := newFakeBackend()
	result, err := Preview(context.Background(), fb, testTable(), strings.NewReader("id,name\n9,Nobody\n"), 1)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	diff := result.UpdateDiffs[0]
	if len(diff.Current) != 0 || len(diff.Changed) != 1 || diff.Changed[0] != "name" {
		t.Errorf("diff = %+v, want every incoming column changed", diff)
	}
}

func TestPreview_Errors(t *testing.T) {
	fb := newFakeBackend()
	if _, err := Preview(context.Background(), fb, testTable(), strings.NewReader(""), 1); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("empty file error = %v, want ErrEmptyFile", err)
	}

	errDown := errors.New("down")
	fb.queryFn = func(ctx context.Context, q backend.Query) (*backend.Page, error) { return nil, errDown }
	_, err := Preview(context.Background(), fb, testTable(), strings.NewReader("id,name\n1,Ada\n"), 1)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || !errors.Is(err, errDown) {
		t.Errorf("lookup failure = %v, want FetchError wrapping %v", err, errDown)
	}
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(testTable(), &buf); err != nil {
		t.Fatalf("WriteTemplate() error = %v", err)
	}
	if got, want := buf.String(), "name,status,price,due_date,address.city,notes\n"; got != want {
		t.Errorf("template = %q, want %q", got, want)
	}
}
