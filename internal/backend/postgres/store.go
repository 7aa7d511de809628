// Package postgres implements backend.Backend on PostgreSQL. Tables are
// addressed by name and their columns are discovered from
// information_schema, so any table created by a migration can be served.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

// Store is a backend.Backend over a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	schema *schemaCache
}

var _ backend.Backend = (*Store)(nil)

// New creates a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, schema: newSchemaCache()}
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) tableSchema(ctx context.Context, table string) (tableSchema, error) {
	return s.schema.get(ctx, s.pool, table)
}

// Query fetches one page of rows. The requested page is clamped to the
// available range and the reported pagination is authoritative.
func (s *Store) Query(ctx context.Context, endpoint string, q backend.Query) (*backend.Page, error) {
	schema, err := s.tableSchema(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = core.DefaultPageSize
	}

	where, err := whereClause(schema, q)
	if err != nil {
		return nil, err
	}
	order, err := orderBy(schema, q.Sort)
	if err != nil {
		return nil, err
	}

	countSQL, countArgs, err := countQuery(endpoint, where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}

	totalPages := backend.TotalPages(int(total), pageSize)
	page := clampPage(q.Page, totalPages)

	selectSQL, selectArgs, err := pageQuery(endpoint, where, order, page, pageSize).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.pool.Query(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	items, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan rows: %w", err)
	}

	return &backend.Page{
		Items: items,
		Pagination: backend.Pagination{
			TotalItems:  int(total),
			TotalPages:  totalPages,
			CurrentPage: page,
			PageSize:    pageSize,
		},
	}, nil
}

// Insert adds one row and returns it as stored.
func (s *Store) Insert(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	schema, err := s.tableSchema(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	b, err := insertStatement(endpoint, schema, withoutEmptyID(row), false)
	if err != nil {
		return nil, err
	}
	return s.queryOne(ctx, s.pool, b)
}

// Update writes every field of row except its identifier. The row must
// already exist; otherwise core.ErrNotFound is returned.
func (s *Store) Update(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	schema, err := s.tableSchema(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	rawID, fields, err := backend.StripID(row)
	if err != nil {
		return nil, err
	}
	id, err := coerce(schema["id"], rawID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	cols, vals, err := writableFields(schema, fields)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	existsSQL := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE \"id\" = $1)", quoteIdentifier(endpoint))
	if err := tx.QueryRow(ctx, existsSQL, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%s %v: %w", endpoint, rawID, core.ErrNotFound)
	}

	var updated core.Row
	if len(cols) == 0 {
		b := psql.Select("*").From(quoteIdentifier(endpoint)).Where(sq.Eq{`"id"`: id})
		updated, err = s.queryOne(ctx, tx, b)
	} else {
		b := psql.Update(quoteIdentifier(endpoint)).Where(sq.Eq{`"id"`: id}).Suffix("RETURNING *")
		for i, col := range cols {
			b = b.Set(quoteIdentifier(col), vals[i])
		}
		updated, err = s.queryOne(ctx, tx, b)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// Delete removes one row by id.
func (s *Store) Delete(ctx context.Context, endpoint string, id any) error {
	n, err := s.BulkDelete(ctx, endpoint, []any{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", endpoint, id, core.ErrNotFound)
	}
	return nil
}

// BulkUpsert inserts rows without an id and upserts rows with one, in a
// single transaction.
func (s *Store) BulkUpsert(ctx context.Context, endpoint string, rows []core.Row) ([]core.Row, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	schema, err := s.tableSchema(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for i, row := range rows {
		b, err := insertStatement(endpoint, schema, withoutEmptyID(row), true)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		sql, args, err := b.ToSql()
		if err != nil {
			return nil, fmt.Errorf("row %d: build upsert: %w", i+1, err)
		}
		batch.Queue(sql, args...)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	out := make([]core.Row, 0, len(rows))
	for i := range rows {
		r, err := results.Query()
		if err != nil {
			results.Close()
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		row, err := pgx.CollectOneRow(r, pgx.RowToMap)
		if err != nil {
			results.Close()
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, normalizeRow(row))
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// insertStatement builds an INSERT ... RETURNING * for row. With upsert
// set, a row carrying an id overwrites the existing row with that id.
func insertStatement(endpoint string, schema tableSchema, row core.Row, upsert bool) (sq.Sqlizer, error) {
	cols, vals, err := writableFields(schema, row)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return sq.Expr("INSERT INTO " + quoteIdentifier(endpoint) + " DEFAULT VALUES RETURNING *"), nil
	}

	b := psql.Insert(quoteIdentifier(endpoint)).Columns(quoteColumns(cols)...).Values(vals...)
	if _, hasID := row["id"]; !upsert || !hasID {
		return b.Suffix("RETURNING *"), nil
	}

	var sets []string
	for _, col := range cols {
		if col == "id" {
			continue
		}
		q := quoteIdentifier(col)
		sets = append(sets, q+" = EXCLUDED."+q)
	}
	if len(sets) == 0 {
		// DO NOTHING would return no row; touch id so RETURNING yields it.
		return b.Suffix(`ON CONFLICT ("id") DO UPDATE SET "id" = EXCLUDED."id" RETURNING *`), nil
	}
	return b.Suffix(`ON CONFLICT ("id") DO UPDATE SET ` + strings.Join(sets, ", ") + " RETURNING *"), nil
}

// BulkDelete removes every row whose id is in ids and reports how many were
// deleted.
func (s *Store) BulkDelete(ctx context.Context, endpoint string, ids []any) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	schema, err := s.tableSchema(ctx, endpoint)
	if err != nil {
		return 0, err
	}

	typed := make([]any, len(ids))
	for i, id := range ids {
		v, err := coerce(schema["id"], id)
		if err != nil {
			return 0, fmt.Errorf("id %v: %w", id, err)
		}
		typed[i] = v
	}

	sql, args, err := psql.Delete(quoteIdentifier(endpoint)).Where(sq.Eq{`"id"`: typed}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete rows: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Select returns the given columns of every row, ordered by id.
func (s *Store) Select(ctx context.Context, endpoint string, columns []string) ([]core.Row, error) {
	schema, err := s.tableSchema(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	for _, col := range columns {
		if !schema.has(col) {
			return nil, fmt.Errorf("%w: %s", core.ErrUnknownColumn, col)
		}
	}

	b := psql.Select("*").From(quoteIdentifier(endpoint))
	if len(columns) > 0 {
		b = psql.Select(quoteColumns(columns)...).From(quoteIdentifier(endpoint))
	}
	if schema.has("id") {
		b = b.OrderBy(`"id" ASC`)
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select rows: %w", err)
	}
	return collectRows(rows)
}

// UpdateWhere applies patch to every row whose column equals value.
// Returns core.ErrNotFound when no row matched.
func (s *Store) UpdateWhere(ctx context.Context, endpoint, column string, value any, patch core.Row) error {
	schema, err := s.tableSchema(ctx, endpoint)
	if err != nil {
		return err
	}
	dataType, ok := schema[column]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownColumn, column)
	}
	key, err := coerce(dataType, value)
	if err != nil {
		return fmt.Errorf("%s: %w", column, err)
	}
	cols, vals, err := writableFields(schema, patch)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}

	b := psql.Update(quoteIdentifier(endpoint)).Where(sq.Eq{quoteIdentifier(column): key})
	for i, col := range cols {
		b = b.Set(quoteIdentifier(col), vals[i])
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update rows: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s=%v: %w", endpoint, column, value, core.ErrNotFound)
	}
	return nil
}

func (s *Store) queryOne(ctx context.Context, q querier, b sq.Sqlizer) (core.Row, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return normalizeRow(row), nil
}

func collectRows(rows pgx.Rows) ([]core.Row, error) {
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]core.Row, len(maps))
	for i, m := range maps {
		out[i] = normalizeRow(m)
	}
	return out, nil
}

// withoutEmptyID drops a nil or blank id so the database assigns one.
func withoutEmptyID(row core.Row) core.Row {
	if _, ok := row.ID(); ok {
		return row
	}
	out := make(core.Row, len(row))
	for k, v := range row {
		if k == "id" || k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}
