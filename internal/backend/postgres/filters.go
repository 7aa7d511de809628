package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/datagrid/internal/core"
)

// SaveFilter stores a named filter set and returns it with its id and
// creation time filled in.
func (s *Store) SaveFilter(ctx context.Context, f core.SavedFilter) (*core.SavedFilter, error) {
	if f.TableName == "" || f.Name == "" {
		return nil, core.ValidationError{Field: "name", Message: "table and name are required"}
	}
	if f.Filters == nil {
		f.Filters = map[string]any{}
	}
	id := uuid.New()

	var created time.Time
	err := s.pool.QueryRow(ctx, `
		INSERT INTO saved_filters (id, table_name, created_by, name, filters)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		id, f.TableName, f.CreatedBy, f.Name, f.Filters,
	).Scan(&created)
	if err != nil {
		return nil, fmt.Errorf("save filter: %w", err)
	}

	f.ID = id.String()
	f.CreatedAt = created.UTC().Format(core.ISOLayout)
	return &f, nil
}

// ListFilters returns the filters a user saved for a table, oldest first.
func (s *Store) ListFilters(ctx context.Context, table, user string) ([]core.SavedFilter, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, table_name, created_by, name, filters, created_at
		FROM saved_filters
		WHERE table_name = $1 AND created_by = $2
		ORDER BY created_at, name`,
		table, user,
	)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.SavedFilter, error) {
		var (
			f       core.SavedFilter
			id      uuid.UUID
			created time.Time
		)
		if err := row.Scan(&id, &f.TableName, &f.CreatedBy, &f.Name, &f.Filters, &created); err != nil {
			return f, err
		}
		f.ID = id.String()
		f.CreatedAt = created.UTC().Format(core.ISOLayout)
		return f, nil
	})
}
