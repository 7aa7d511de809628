package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/datagrid/internal/core"
)

const foreignKeyQuery = `
SELECT ccu.table_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
  AND tc.table_schema = current_schema()
  AND tc.table_name = $1
  AND kcu.column_name = $2
LIMIT 1`

// reference resolves the table and column that endpoint.field points at.
// Without a foreign key the field is taken to name the referenced table.
func (s *Store) reference(ctx context.Context, endpoint, field string) (table, column string, err error) {
	err = s.pool.QueryRow(ctx, foreignKeyQuery, endpoint, field).Scan(&table, &column)
	if errors.Is(err, pgx.ErrNoRows) {
		return field, "id", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("resolve %s.%s: %w", endpoint, field, err)
	}
	return table, column, nil
}

// Populate returns every row of the table referenced by endpoint.field as
// an option: the referenced key is the value and source the label.
func (s *Store) Populate(ctx context.Context, endpoint, field, source string) ([]core.Option, error) {
	if _, err := s.tableSchema(ctx, endpoint); err != nil {
		return nil, err
	}
	refTable, refColumn, err := s.reference(ctx, endpoint, field)
	if err != nil {
		return nil, err
	}
	refSchema, err := s.tableSchema(ctx, refTable)
	if err != nil {
		return nil, fmt.Errorf("populate %s.%s: %w", endpoint, field, err)
	}
	if !refSchema.has(source) {
		return nil, fmt.Errorf("%w: %s.%s", core.ErrUnknownColumn, refTable, source)
	}

	sql, args, err := psql.
		Select(
			quoteIdentifier(refColumn)+"::text",
			"COALESCE("+quoteIdentifier(source)+"::text, '')",
		).
		From(quoteIdentifier(refTable)).
		OrderBy("2", "1").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build populate: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("populate %s.%s: %w", endpoint, field, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Option, error) {
		var opt core.Option
		err := row.Scan(&opt.Value, &opt.Label)
		return opt, err
	})
}
