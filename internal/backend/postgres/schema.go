package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// tableSchema maps a table's column names to their information_schema
// data_type ("integer", "text", "jsonb", ...).
type tableSchema map[string]string

func (s tableSchema) has(col string) bool {
	_, ok := s[col]
	return ok
}

// schemaCache remembers introspected table schemas. Tables are created by
// migrations, so entries never go stale while the server runs.
type schemaCache struct {
	mu     sync.RWMutex
	tables map[string]tableSchema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{tables: make(map[string]tableSchema)}
}

const columnsQuery = `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`

func (c *schemaCache) get(ctx context.Context, q querier, table string) (tableSchema, error) {
	c.mu.RLock()
	s, ok := c.tables[table]
	c.mu.RUnlock()
	if ok {
		return s, nil
	}

	rows, err := q.Query(ctx, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	defer rows.Close()

	s = make(tableSchema)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, fmt.Errorf("introspect %s: %w", table, err)
		}
		s[name] = dataType
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}

	c.mu.Lock()
	c.tables[table] = s
	c.mu.Unlock()
	return s, nil
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// coerce converts a grid value into the Go type pgx encodes for dataType.
// Strings go through the same parsers used for CSV import.
func coerce(dataType string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch dataType {
	case "smallint", "integer", "bigint":
		return coerceInt(v)

	case "numeric", "real", "double precision":
		switch n := v.(type) {
		case float64, float32, int, int32, int64:
			return n, nil
		case string:
			if strings.TrimSpace(n) == "" {
				return nil, nil
			}
			num := core.ToPgNumeric(n)
			if !num.Valid {
				return nil, fmt.Errorf("invalid number: %q", n)
			}
			return num, nil
		}

	case "boolean":
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			if strings.TrimSpace(b) == "" {
				return nil, nil
			}
			pb := core.ToPgBool(b)
			if !pb.Valid {
				return nil, fmt.Errorf("must be yes/no: %q", b)
			}
			return pb, nil
		}

	case "date":
		if s, ok := v.(string); ok {
			if strings.TrimSpace(s) == "" {
				return nil, nil
			}
			d := core.ToPgDate(s)
			if !d.Valid {
				return nil, fmt.Errorf("invalid date format: %q", s)
			}
			return d, nil
		}
		if t, ok := v.(time.Time); ok {
			return pgtype.Date{Time: t, Valid: true}, nil
		}

	case "timestamp with time zone", "timestamp without time zone":
		if s, ok := v.(string); ok {
			if strings.TrimSpace(s) == "" {
				return nil, nil
			}
			ts := core.ToPgTimestamptz(s)
			if !ts.Valid {
				return nil, fmt.Errorf("invalid date format: %q", s)
			}
			return ts, nil
		}
		if t, ok := v.(time.Time); ok {
			return t, nil
		}

	case "uuid":
		s := fmt.Sprint(v)
		u := core.ToPgUUID(s)
		if !u.Valid {
			return nil, fmt.Errorf("invalid uuid: %q", s)
		}
		return u, nil

	case "json", "jsonb":
		return v, nil
	}

	switch x := v.(type) {
	case map[string]any, core.Row, []any:
		// Structured values only belong in json columns.
		return nil, errSkip
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	}
	return fmt.Sprint(v), nil
}

// errSkip marks a value that should be left out of a write.
var errSkip = errors.New("skip value")

func coerceInt(v any) (any, error) {
	switch n := v.(type) {
	case int, int32, int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("invalid number: %v is not an integer", n)
		}
		return int64(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil, nil
		}
		f, ok := core.ParseNumber(s)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("invalid number: %q", n)
		}
		return int64(f), nil
	case json.Number:
		return n.Int64()
	}
	return nil, fmt.Errorf("invalid number: %v", v)
}

// writableFields coerces row values for an INSERT or UPDATE. Columns the
// table lacks are dropped, as are empty objects and structured values bound
// for non-json columns.
func writableFields(s tableSchema, row core.Row) ([]string, []any, error) {
	cols := make([]string, 0, len(row))
	for k := range row {
		cols = append(cols, k)
	}
	slices.Sort(cols)

	var (
		outCols []string
		outVals []any
	)
	for _, col := range cols {
		dataType, ok := s[col]
		if !ok {
			continue
		}
		v := row[col]
		if m, isMap := v.(map[string]any); isMap && len(m) == 0 {
			continue
		}
		val, err := coerce(dataType, v)
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return nil, nil, core.ValidationError{Field: col, Value: fmt.Sprint(v), Message: err.Error()}
		}
		outCols = append(outCols, col)
		outVals = append(outVals, val)
	}
	return outCols, outVals, nil
}

// normalizeRow converts scanned values into the plain types the grid works
// with: numbers as float64, timestamps as ISO strings, uuids as strings.
func normalizeRow(m map[string]any) core.Row {
	row := make(core.Row, len(m))
	for k, v := range m {
		row[k] = normalizeValue(v)
	}
	return row
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Time:
		return x.UTC().Format(core.ISOLayout)
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.UUID:
		if !x.Valid {
			return nil
		}
		return core.PgUUIDToString(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}
