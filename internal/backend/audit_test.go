package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/datagrid/internal/core"
)

type stubStore struct {
	Backend
	err error
}

func (s stubStore) Insert(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	if s.err != nil {
		return nil, s.err
	}
	stored := core.Row{"id": float64(7)}
	for k, v := range row {
		stored[k] = v
	}
	return stored, nil
}

func (s stubStore) Update(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	return row, s.err
}

func (s stubStore) Delete(ctx context.Context, endpoint string, id any) error {
	return s.err
}

func (s stubStore) BulkUpsert(ctx context.Context, endpoint string, rows []core.Row) ([]core.Row, error) {
	return rows, s.err
}

func (s stubStore) BulkDelete(ctx context.Context, endpoint string, ids []any) (int, error) {
	return len(ids), s.err
}

func (s stubStore) UpdateWhere(ctx context.Context, endpoint, column string, value any, patch core.Row) error {
	return s.err
}

type memoryAudit struct {
	entries []core.AuditEntry
	err     error
	filter  core.AuditFilter
}

func (m *memoryAudit) LogAudit(ctx context.Context, entry core.AuditEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryAudit) History(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	m.filter = f
	return m.entries, nil
}

func TestAudited_RecordsMutations(t *testing.T) {
	log := &memoryAudit{}
	a := NewAudited(stubStore{}, log)

	ctx := core.ContextWithUserID(context.Background(), "ada")
	ctx = core.ContextWithIPAddress(ctx, "10.0.0.1")

	if _, err := a.Insert(ctx, "users", core.Row{"name": "Ada"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := a.Update(ctx, "users", core.Row{"id": float64(7), "name": "Ada L"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := a.Delete(ctx, "users", float64(7)); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := a.BulkUpsert(ctx, "users", []core.Row{{"name": "A"}, {"name": "B"}}); err != nil {
		t.Fatalf("BulkUpsert() error = %v", err)
	}
	if _, err := a.BulkDelete(ctx, "users", []any{1, 2, 3}); err != nil {
		t.Fatalf("BulkDelete() error = %v", err)
	}
	if err := a.UpdateWhere(ctx, "tasks", "status", "todo", core.Row{"status": "done"}); err != nil {
		t.Fatalf("UpdateWhere() error = %v", err)
	}

	want := []struct {
		action   core.AuditAction
		severity core.AuditSeverity
		rowKey   string
		affected int
	}{
		{core.ActionInsert, core.SeverityLow, "7", 1},
		{core.ActionUpdate, core.SeverityMedium, "7", 1},
		{core.ActionDelete, core.SeverityHigh, "7", 1},
		{core.ActionBulkUpsert, core.SeverityHigh, "", 2},
		{core.ActionBulkDelete, core.SeverityCritical, "", 3},
		{core.ActionMatchUpdate, core.SeverityHigh, "", 0},
	}
	if len(log.entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(log.entries), len(want))
	}
	for i, w := range want {
		got := log.entries[i]
		if got.Action != w.action || got.Severity != w.severity || got.RowKey != w.rowKey || got.RowsAffected != w.affected {
			t.Errorf("entry %d = %s/%s/%q/%d, want %s/%s/%q/%d", i,
				got.Action, got.Severity, got.RowKey, got.RowsAffected,
				w.action, w.severity, w.rowKey, w.affected)
		}
		if got.UserID != "ada" || got.IPAddress != "10.0.0.1" {
			t.Errorf("entry %d user, ip = %q, %q, want ada, 10.0.0.1", i, got.UserID, got.IPAddress)
		}
	}
	if log.entries[0].RowData["name"] != "Ada" {
		t.Errorf("insert RowData = %v, want the stored row", log.entries[0].RowData)
	}
}

func TestAudited_FailedMutationNotRecorded(t *testing.T) {
	log := &memoryAudit{}
	errDown := errors.New("down")
	a := NewAudited(stubStore{err: errDown}, log)

	if _, err := a.Insert(context.Background(), "users", core.Row{"name": "Ada"}); !errors.Is(err, errDown) {
		t.Errorf("Insert() error = %v, want %v", err, errDown)
	}
	if err := a.Delete(context.Background(), "users", 1); !errors.Is(err, errDown) {
		t.Errorf("Delete() error = %v, want %v", err, errDown)
	}
	if len(log.entries) != 0 {
		t.Errorf("entries = %v, want none", log.entries)
	}
}

func TestAudited_AuditFailureIsNotFatal(t *testing.T) {
	a := NewAudited(stubStore{}, &memoryAudit{err: errors.New("audit down")})

	stored, err := a.Insert(context.Background(), "users", core.Row{"name": "Ada"})
	if err != nil {
		t.Fatalf("Insert() error = %v, want nil when only the audit write fails", err)
	}
	if stored["id"] != float64(7) {
		t.Errorf("stored = %v", stored)
	}
}

func TestAudited_History(t *testing.T) {
	log := &memoryAudit{entries: []core.AuditEntry{{Action: core.ActionInsert}}}
	a := NewAudited(stubStore{}, log)

	got, err := a.History(context.Background(), core.AuditFilter{TableKey: "users", Limit: 10000})
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("History() = %v, want 1 entry", got)
	}
	if log.filter.Limit != core.MaxHistoryLimit {
		t.Errorf("Limit = %d, want clamped to %d", log.filter.Limit, core.MaxHistoryLimit)
	}
}
