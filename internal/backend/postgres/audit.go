package postgres

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

var _ backend.AuditLog = (*Store)(nil)

// LogAudit inserts one audit entry.
func (s *Store) LogAudit(ctx context.Context, e core.AuditEntry) error {
	var ip *netip.Addr
	if addr, err := netip.ParseAddr(e.IPAddress); err == nil {
		ip = &addr
	}
	if e.Severity == "" {
		e.Severity = core.SeverityFor(e.Action)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (id, action, severity, table_key, user_id, ip_address, row_key, row_data, rows_affected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), string(e.Action), string(e.Severity), e.TableKey,
		nullText(e.UserID), ip, nullText(e.RowKey), e.RowData, e.RowsAffected,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History lists audit entries matching f, newest first.
func (s *Store) History(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	f = f.Normalize()

	b := psql.Select(
		"id", "action", "severity", "table_key", "COALESCE(user_id, '')",
		"COALESCE(host(ip_address), '')", "COALESCE(row_key, '')", "row_data",
		"rows_affected", "created_at",
	).From("audit_log").
		OrderBy("created_at DESC", "id").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))

	if f.TableKey != "" {
		b = b.Where(sq.Eq{"table_key": f.TableKey})
	}
	if f.Action != "" {
		b = b.Where(sq.Eq{"action": string(f.Action)})
	}
	if !f.Since.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": f.Since})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.AuditEntry, error) {
		var (
			e       core.AuditEntry
			id      uuid.UUID
			created time.Time
		)
		err := row.Scan(&id, &e.Action, &e.Severity, &e.TableKey, &e.UserID,
			&e.IPAddress, &e.RowKey, &e.RowData, &e.RowsAffected, &created)
		if err != nil {
			return e, err
		}
		e.ID = id.String()
		e.CreatedAt = created.UTC()
		return e, nil
	})
}

// PurgeAudit deletes audit entries created before cutoff.
func (s *Store) PurgeAudit(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM audit_log WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
