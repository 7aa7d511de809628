package grid

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

// fakeBackend is an in-memory backend.Backend that records its calls.
type fakeBackend struct {
	mu sync.Mutex

	rows    []core.Row
	options map[string][]core.Option
	filters []core.SavedFilter

	queries     []backend.Query
	updates     []core.Row
	inserts     []core.Row
	upserts     [][]core.Row
	deleted     []any
	selects     [][]string
	updateWhere []fakeUpdateWhere

	// Optional overrides.
	queryFn  func(ctx context.Context, q backend.Query) (*backend.Page, error)
	updateFn func(row core.Row) (core.Row, error)
}

type fakeUpdateWhere struct {
	column string
	value  any
	patch  core.Row
}

var _ backend.Backend = (*fakeBackend)(nil)

func newFakeBackend(rows ...core.Row) *fakeBackend {
	return &fakeBackend{rows: rows, options: make(map[string][]core.Option)}
}

func (f *fakeBackend) Query(ctx context.Context, endpoint string, q backend.Query) (*backend.Page, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	fn := f.queryFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, q)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []core.Row
	for _, row := range f.rows {
		if q.SearchQuery != "" {
			v := fmt.Sprint(core.GetPath(row, q.SearchColumn))
			if !strings.Contains(strings.ToLower(v), strings.ToLower(q.SearchQuery)) {
				continue
			}
		}
		ok := true
		for col, want := range q.Filters {
			if fmt.Sprint(core.GetPath(row, col)) != fmt.Sprint(want) {
				ok = false
			}
		}
		if ok {
			matched = append(matched, row.Clone())
		}
	}

	size := q.PageSize
	if size <= 0 {
		size = core.DefaultPageSize
	}
	page := max(q.Page, 1)
	start := min((page-1)*size, len(matched))
	end := min(start+size, len(matched))
	return &backend.Page{
		Items: matched[start:end],
		Pagination: backend.Pagination{
			TotalItems:  len(matched),
			TotalPages:  backend.TotalPages(len(matched), size),
			CurrentPage: page,
			PageSize:    size,
		},
	}, nil
}

func (f *fakeBackend) Insert(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	created := row.Clone()
	created["id"] = float64(len(f.rows) + 100)
	f.inserts = append(f.inserts, row)
	f.rows = append(f.rows, created)
	return created.Clone(), nil
}

func (f *fakeBackend) Update(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	f.mu.Lock()
	f.updates = append(f.updates, row.Clone())
	fn := f.updateFn
	f.mu.Unlock()
	if fn != nil {
		return fn(row)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.rows {
		if core.SameRecord(existing, row) {
			saved := row.Clone()
			saved["updated_at"] = "2024-06-01T00:00:00.000Z"
			f.rows[i] = saved
			return saved.Clone(), nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeBackend) Delete(ctx context.Context, endpoint string, id any) error {
	_, err := f.BulkDelete(ctx, endpoint, []any{id})
	return err
}

func (f *fakeBackend) BulkUpsert(ctx context.Context, endpoint string, rows []core.Row) ([]core.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]core.Row, len(rows))
	for i, row := range rows {
		batch[i] = row.Clone()
	}
	f.upserts = append(f.upserts, batch)
	return batch, nil
}

func (f *fakeBackend) BulkDelete(ctx context.Context, endpoint string, ids []any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	return len(ids), nil
}

func (f *fakeBackend) Populate(ctx context.Context, endpoint, field, source string) ([]core.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	opts, ok := f.options[field]
	if !ok {
		return nil, fmt.Errorf("no reference for %s", field)
	}
	return opts, nil
}

func (f *fakeBackend) Select(ctx context.Context, endpoint string, columns []string) ([]core.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects = append(f.selects, columns)
	out := make([]core.Row, len(f.rows))
	for i, row := range f.rows {
		out[i] = core.Row{}
		for _, col := range columns {
			out[i][col] = row[col]
		}
	}
	return out, nil
}

func (f *fakeBackend) UpdateWhere(ctx context.Context, endpoint, column string, value any, patch core.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateWhere = append(f.updateWhere, fakeUpdateWhere{column: column, value: value, patch: patch})
	found := false
	for _, row := range f.rows {
		if fmt.Sprint(row[column]) == fmt.Sprint(value) {
			for k, v := range patch {
				row[k] = v
			}
			found = true
		}
	}
	if !found {
		return core.ErrNotFound
	}
	return nil
}

func (f *fakeBackend) SaveFilter(ctx context.Context, sf core.SavedFilter) (*core.SavedFilter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sf.ID = fmt.Sprintf("filter-%d", len(f.filters)+1)
	f.filters = append(f.filters, sf)
	return &sf, nil
}

func (f *fakeBackend) ListFilters(ctx context.Context, table, user string) ([]core.SavedFilter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.SavedFilter
	for _, sf := range f.filters {
		if sf.TableName == table && sf.CreatedBy == user {
			out = append(out, sf)
		}
	}
	return out, nil
}

func (f *fakeBackend) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeBackend) lastQuery() backend.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *fakeBackend) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

// testTable is a small definition with every column kind the grid handles.
func testTable() core.TableDefinition {
	return core.TableDefinition{
		Info: core.TableInfo{Key: "users", Label: "Users"},
		Columns: []core.Column{
			{Key: "id", Header: "ID", Type: core.ColumnNumber},
			{Key: "name", Header: "Name", Type: core.ColumnText, Editable: true, Sortable: true, Validation: "required"},
			{Key: "status", Header: "Status", Type: core.ColumnSelect, Editable: true, Options: []core.Option{
				{Value: "active", Label: "Active"},
				{Value: "inactive", Label: "Inactive"},
			}},
			{Key: "price", Header: "Price", Type: core.ColumnNumber, Editable: true, Validation: "gte=0"},
			{Key: "due_date", Header: "Due", Type: core.ColumnDate, Editable: true},
			{Key: "address.city", Header: "City", Type: core.ColumnText, Editable: true},
			{Key: "notes", Header: "Notes", Type: core.ColumnTextarea, Hidden: true},
		},
		Search:       core.SearchConfig{Enabled: true, Columns: []string{"name"}},
		Filter:       core.Toggle{Enabled: true},
		Pagination:   core.PaginationConfig{PageSize: 2},
		Select:       core.SelectConfig{Enabled: true, Mode: core.SelectMulti},
		BulkEdit:     core.Toggle{Enabled: true},
		Add:          core.Toggle{Enabled: true},
		Delete:       core.Toggle{Enabled: true},
		Export:       core.Toggle{Enabled: true},
		Import:       core.Toggle{Enabled: true},
		ColumnToggle: core.Toggle{Enabled: true},
	}
}

func testRows() []core.Row {
	return []core.Row{
		{"id": float64(1), "name": "Ada", "status": "active", "price": float64(10), "due_date": "2024-01-15T00:00:00.000Z", "address": map[string]any{"city": "London"}},
		{"id": float64(2), "name": "Grace", "status": "inactive", "price": float64(20), "due_date": nil},
		{"id": float64(3), "name": "Linus", "status": "active", "price": float64(30)},
	}
}
