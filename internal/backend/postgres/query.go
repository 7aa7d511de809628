package postgres

import (
	"fmt"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdentifier(c)
	}
	return quoted
}

// whereClause builds the filter and search conditions for a page query.
func whereClause(s tableSchema, q backend.Query) (sq.And, error) {
	var where sq.And

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, col := range keys {
		dataType, ok := s[col]
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrUnknownColumn, col)
		}
		value := q.Filters[col]
		qcol := quoteIdentifier(col)

		if r, isRange := backend.AsRange(value); isRange {
			if !backend.IsBlank(r.Lo) {
				lo, err := coerce(dataType, r.Lo)
				if err != nil {
					return nil, fmt.Errorf("filter %s: %w", col, err)
				}
				where = append(where, sq.GtOrEq{qcol: lo})
			}
			if !backend.IsBlank(r.Hi) {
				hi, err := coerce(dataType, r.Hi)
				if err != nil {
					return nil, fmt.Errorf("filter %s: %w", col, err)
				}
				where = append(where, sq.LtOrEq{qcol: hi})
			}
			continue
		}

		if backend.IsBlank(value) {
			continue
		}
		v, err := coerce(dataType, value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", col, err)
		}
		where = append(where, sq.Eq{qcol: v})
	}

	if term := strings.TrimSpace(q.SearchQuery); term != "" && q.SearchColumn != "" {
		if !s.has(q.SearchColumn) {
			return nil, fmt.Errorf("%w: %s", core.ErrUnknownColumn, q.SearchColumn)
		}
		where = append(where, sq.Expr(quoteIdentifier(q.SearchColumn)+"::text ILIKE ?", "%"+escapeLike(term)+"%"))
	}

	return where, nil
}

// escapeLike escapes LIKE wildcards so the term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// orderBy returns the ORDER BY terms. The id column breaks ties so pages
// are stable.
func orderBy(s tableSchema, sort backend.Sort) ([]string, error) {
	if sort.Column == "" {
		if s.has("id") {
			return []string{`"id" ASC`}, nil
		}
		return nil, nil
	}
	if !s.has(sort.Column) {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownColumn, sort.Column)
	}

	dir := "DESC"
	if sort.Ascending {
		dir = "ASC"
	}
	terms := []string{quoteIdentifier(sort.Column) + " " + dir}
	if sort.Column != "id" && s.has("id") {
		terms = append(terms, `"id" ASC`)
	}
	return terms, nil
}

func countQuery(table string, where sq.And) sq.SelectBuilder {
	b := psql.Select("COUNT(*)").From(quoteIdentifier(table))
	if len(where) > 0 {
		b = b.Where(where)
	}
	return b
}

func pageQuery(table string, where sq.And, order []string, page, pageSize int) sq.SelectBuilder {
	b := psql.Select("*").From(quoteIdentifier(table))
	if len(where) > 0 {
		b = b.Where(where)
	}
	if len(order) > 0 {
		b = b.OrderBy(order...)
	}
	return b.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))
}

// clampPage keeps the requested page inside [1, totalPages].
func clampPage(page, totalPages int) int {
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	return page
}
