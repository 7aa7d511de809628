// Package backend defines the storage contract the grid talks to. The
// postgres package implements it against a database; the rest package
// implements it against a running datagrid server.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/datagrid/internal/core"
)

// Sort orders a query by one column.
type Sort struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// Range is an inclusive [Lo, Hi] filter. Either bound may be empty.
type Range struct {
	Lo any `json:"lo"`
	Hi any `json:"hi"`
}

// Query describes one page fetch.
type Query struct {
	Page     int // 1-based
	PageSize int

	// Filters maps column to an equality value or a Range.
	Filters map[string]any

	Sort Sort // Empty Column means id ascending

	SearchColumn string
	SearchQuery  string // Case-insensitive substring match on SearchColumn
}

// Pagination is the authoritative page metadata reported by the store.
type Pagination struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

// Page is one page of rows.
type Page struct {
	Items      []core.Row `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Backend is a CRUD store keyed by endpoint (table) name.
type Backend interface {
	Query(ctx context.Context, endpoint string, q Query) (*Page, error)

	Insert(ctx context.Context, endpoint string, row core.Row) (core.Row, error)
	Update(ctx context.Context, endpoint string, row core.Row) (core.Row, error)
	Delete(ctx context.Context, endpoint string, id any) error

	BulkUpsert(ctx context.Context, endpoint string, rows []core.Row) ([]core.Row, error)
	BulkDelete(ctx context.Context, endpoint string, ids []any) (int, error)

	// Populate returns options for a select column from the table referenced
	// by endpoint.field, labelled by the referenced table's source column.
	Populate(ctx context.Context, endpoint, field, source string) ([]core.Option, error)

	// Select returns the given columns of every row. Used by the kanban board.
	Select(ctx context.Context, endpoint string, columns []string) ([]core.Row, error)

	// UpdateWhere applies patch to rows whose column equals value.
	UpdateWhere(ctx context.Context, endpoint, column string, value any, patch core.Row) error

	SaveFilter(ctx context.Context, f core.SavedFilter) (*core.SavedFilter, error)
	ListFilters(ctx context.Context, table, user string) ([]core.SavedFilter, error)
}

// TotalPages returns ceil(totalItems / pageSize).
func TotalPages(totalItems, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// AsRange reports whether a filter value is a two-element range. Slices of
// length two and Range values qualify.
func AsRange(v any) (Range, bool) {
	switch r := v.(type) {
	case Range:
		return r, true
	case *Range:
		if r != nil {
			return *r, true
		}
	case []any:
		if len(r) == 2 {
			return Range{Lo: r[0], Hi: r[1]}, true
		}
	case []string:
		if len(r) == 2 {
			return Range{Lo: r[0], Hi: r[1]}, true
		}
	case [2]any:
		return Range{Lo: r[0], Hi: r[1]}, true
	}
	return Range{}, false
}

// IsBlank reports whether a range bound or filter value should be ignored.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// StripID splits a row into its identifier and the remaining fields.
func StripID(row core.Row) (any, core.Row, error) {
	id, ok := row.ID()
	if !ok {
		return nil, nil, core.ErrMissingID
	}
	rest := make(core.Row, len(row))
	for k, v := range row {
		if k == "id" || k == "_id" {
			continue
		}
		rest[k] = v
	}
	return id, rest, nil
}

// StatusError is a structured failure returned by a mutation, rendered over
// HTTP as {"status": 400, "message": "..."}.
type StatusError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}
