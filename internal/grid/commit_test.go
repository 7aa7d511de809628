package grid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/datagrid/internal/core"
)

func stage(t *testing.T, buf *EditBuffer, rows []core.Row, row int, column string, value any) {
	t.Helper()
	if _, err := buf.Begin(rows, row, column); err != nil {
		t.Fatalf("Begin(%d, %s) = %v", row, column, err)
	}
	if _, err := buf.Commit(value); err != nil {
		t.Fatalf("Commit(%v) = %v", value, err)
	}
}

func TestPlanCommit_MergesPerRow(t *testing.T) {
	rows := testRows()
	buf := NewEditBuffer(testTable(), nil)

	stage(t, buf, rows, 0, "name", "Ada L.")
	stage(t, buf, rows, 0, "address.city", "Paris")
	stage(t, buf, rows, 2, "status", "inactive")

	updates := PlanCommit(buf)
	if len(updates) != 2 {
		t.Fatalf("len(updates) = %d, want 2", len(updates))
	}

	first := updates[0].Payload
	if first["name"] != "Ada L." || core.GetPath(first, "address.city") != "Paris" {
		t.Errorf("merged payload = %v", first)
	}
	if first["status"] != "active" || first["id"] != float64(1) {
		t.Errorf("payload lost untouched fields: %v", first)
	}
	if len(updates[0].Edits) != 2 {
		t.Errorf("len(Edits) = %d, want 2", len(updates[0].Edits))
	}
	if core.GetPath(rows[0], "address.city") != "London" {
		t.Error("PlanCommit mutated the loaded row")
	}
}

func TestPlanCommit_Empty(t *testing.T) {
	if got := PlanCommit(NewEditBuffer(testTable(), nil)); len(got) != 0 {
		t.Errorf("PlanCommit = %v, want none", got)
	}
}

func TestCommit_OneRequestPerRow(t *testing.T) {
	rows := testRows()
	fb := newFakeBackend(testRows()...)
	buf := NewEditBuffer(testTable(), nil)

	stage(t, buf, rows, 0, "name", "Ada L.")
	stage(t, buf, rows, 0, "price", "11")

	updates := PlanCommit(buf)
	results, saved := DispatchCommit(context.Background(), fb, "users", updates, 4, time.Second)
	if fb.updateCount() != 1 {
		t.Fatalf("update calls = %d, want 1", fb.updateCount())
	}

	out, err := ApplyCommit(rows, buf, updates, results, saved)
	if err != nil {
		t.Fatalf("ApplyCommit = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("pending after commit = %d, want 0", buf.Len())
	}
	if out[0]["name"] != "Ada L." || out[0]["price"] != float64(11) {
		t.Errorf("row not replaced: %v", out[0])
	}
	if out[0]["updated_at"] == nil {
		t.Error("row should be the server's copy")
	}
	if rows[0]["name"] != "Ada" {
		t.Error("ApplyCommit mutated its input slice")
	}
}

func TestCommit_PartialFailure(t *testing.T) {
	rows := testRows()
	fb := newFakeBackend(testRows()...)
	fb.updateFn = func(row core.Row) (core.Row, error) {
		if row["id"] == float64(2) {
			return nil, errors.New("connection reset")
		}
		return row.Clone(), nil
	}
	buf := NewEditBuffer(testTable(), nil)

	stage(t, buf, rows, 0, "name", "Ada L.")
	stage(t, buf, rows, 1, "name", "Grace H.")

	updates := PlanCommit(buf)
	results, saved := DispatchCommit(context.Background(), fb, "users", updates, 2, time.Second)
	out, err := ApplyCommit(rows, buf, updates, results, saved)

	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("ApplyCommit = %v, want *BatchError", err)
	}
	if batchErr.Total != 2 || len(batchErr.Failed) != 1 || batchErr.Failed[0].Row != 1 {
		t.Errorf("BatchError = %+v", batchErr)
	}
	if Classify(err) != KindPartialBatch {
		t.Errorf("Classify = %v, want partial batch", Classify(err))
	}
	if out[0]["name"] != "Ada L." {
		t.Errorf("saved row = %v", out[0])
	}
	if !buf.IsPending(1, "name") || buf.IsPending(0, "name") {
		t.Error("only the failed row should keep its pending edit")
	}
	if out[1]["name"] != "Grace" {
		t.Errorf("failed row changed: %v", out[1])
	}
}

func TestCommit_MissingID(t *testing.T) {
	rows := []core.Row{{"name": "Nobody"}}
	fb := newFakeBackend()
	buf := NewEditBuffer(testTable(), nil)

	stage(t, buf, rows, 0, "name", "Somebody")

	updates := PlanCommit(buf)
	results, saved := DispatchCommit(context.Background(), fb, "users", updates, 4, time.Second)
	if fb.updateCount() != 0 {
		t.Errorf("update calls = %d, want 0", fb.updateCount())
	}
	if !errors.Is(results[0].Err, core.ErrMissingID) {
		t.Errorf("result error = %v, want ErrMissingID", results[0].Err)
	}

	_, err := ApplyCommit(rows, buf, updates, results, saved)
	if Classify(err) != KindPartialBatch || !errors.Is(err, core.ErrMissingID) {
		t.Errorf("ApplyCommit = %v", err)
	}
	if buf.Len() != 1 {
		t.Errorf("pending = %d, want 1", buf.Len())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"validation", core.ValidationError{Field: "name", Message: "value is required"}, KindValidation},
		{"wrapped validation", &FetchError{Endpoint: "users", Err: core.ValidationError{Message: "bad"}}, KindValidation},
		{"missing id", core.ErrMissingID, KindPrecondition},
		{"not found", core.ErrNotFound, KindPrecondition},
		{"batch", &BatchError{Total: 1, Failed: []RowResult{{Err: core.ErrNotFound}}}, KindPartialBatch},
		{"transport", &FetchError{Endpoint: "users", Err: context.DeadlineExceeded}, KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
