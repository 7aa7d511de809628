package backend

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/logging"
)

// AuditLog stores and lists audit entries.
type AuditLog interface {
	LogAudit(ctx context.Context, entry core.AuditEntry) error
	History(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error)
}

// Audited is a Backend that records every successful mutation in an
// AuditLog. The acting user and client IP come from the request context.
// A failed audit write is logged and does not fail the mutation.
type Audited struct {
	Backend
	log AuditLog
}

// NewAudited wraps b so its mutations are recorded in log.
func NewAudited(b Backend, log AuditLog) *Audited {
	return &Audited{Backend: b, log: log}
}

// History lists recorded entries.
func (a *Audited) History(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	return a.log.History(ctx, f.Normalize())
}

func (a *Audited) Insert(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	stored, err := a.Backend.Insert(ctx, endpoint, row)
	if err != nil {
		return nil, err
	}
	a.record(ctx, core.AuditEntry{
		Action:       core.ActionInsert,
		TableKey:     endpoint,
		RowKey:       rowKey(stored),
		RowData:      stored,
		RowsAffected: 1,
	})
	return stored, nil
}

func (a *Audited) Update(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	stored, err := a.Backend.Update(ctx, endpoint, row)
	if err != nil {
		return nil, err
	}
	a.record(ctx, core.AuditEntry{
		Action:       core.ActionUpdate,
		TableKey:     endpoint,
		RowKey:       rowKey(row),
		RowData:      row,
		RowsAffected: 1,
	})
	return stored, nil
}

func (a *Audited) Delete(ctx context.Context, endpoint string, id any) error {
	if err := a.Backend.Delete(ctx, endpoint, id); err != nil {
		return err
	}
	a.record(ctx, core.AuditEntry{
		Action:       core.ActionDelete,
		TableKey:     endpoint,
		RowKey:       fmt.Sprint(id),
		RowsAffected: 1,
	})
	return nil
}

func (a *Audited) BulkUpsert(ctx context.Context, endpoint string, rows []core.Row) ([]core.Row, error) {
	stored, err := a.Backend.BulkUpsert(ctx, endpoint, rows)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		a.record(ctx, core.AuditEntry{
			Action:       core.ActionBulkUpsert,
			TableKey:     endpoint,
			RowsAffected: len(stored),
		})
	}
	return stored, nil
}

func (a *Audited) BulkDelete(ctx context.Context, endpoint string, ids []any) (int, error) {
	n, err := a.Backend.BulkDelete(ctx, endpoint, ids)
	if err != nil {
		return n, err
	}
	if n > 0 {
		a.record(ctx, core.AuditEntry{
			Action:       core.ActionBulkDelete,
			TableKey:     endpoint,
			RowData:      map[string]any{"ids": ids},
			RowsAffected: n,
		})
	}
	return n, nil
}

func (a *Audited) UpdateWhere(ctx context.Context, endpoint, column string, value any, patch core.Row) error {
	if err := a.Backend.UpdateWhere(ctx, endpoint, column, value, patch); err != nil {
		return err
	}
	a.record(ctx, core.AuditEntry{
		Action:   core.ActionMatchUpdate,
		TableKey: endpoint,
		RowData:  map[string]any{"column": column, "value": value, "patch": patch},
	})
	return nil
}

func (a *Audited) record(ctx context.Context, entry core.AuditEntry) {
	entry.Severity = core.SeverityFor(entry.Action)
	entry.UserID = core.UserIDFromContext(ctx)
	entry.IPAddress = core.IPAddressFromContext(ctx)

	if err := a.log.LogAudit(ctx, entry); err != nil {
		logging.WithFields(ctx, "table", entry.TableKey, "action", entry.Action).
			Warn("audit log write failed", "error", err)
	}
}

func rowKey(row core.Row) string {
	if id, ok := row.ID(); ok {
		return fmt.Sprint(id)
	}
	return ""
}
