package web

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

// memoryStore is an in-memory backend.Backend for handler tests.
type memoryStore struct {
	mu sync.Mutex

	rows    []core.Row
	filters []core.SavedFilter
	options []core.Option

	lastQuery   backend.Query
	inserted    []core.Row
	updated     []core.Row
	deleted     []any
	updateWhere []any
	failQuery   error
}

var _ backend.Backend = (*memoryStore)(nil)

func newMemoryStore(rows ...core.Row) *memoryStore {
	return &memoryStore{rows: rows}
}

func (m *memoryStore) find(id any) int {
	for i, row := range m.rows {
		if rid, ok := row.ID(); ok && core.IDString(rid) == core.IDString(id) {
			return i
		}
	}
	return -1
}

func (m *memoryStore) Query(ctx context.Context, endpoint string, q backend.Query) (*backend.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastQuery = q
	if m.failQuery != nil {
		return nil, m.failQuery
	}

	var matched []core.Row
	for _, row := range m.rows {
		if q.SearchQuery != "" {
			v := strings.ToLower(fmt.Sprint(core.GetPath(row, q.SearchColumn)))
			if !strings.Contains(v, strings.ToLower(q.SearchQuery)) {
				continue
			}
		}
		keep := true
		for col, want := range q.Filters {
			if _, isRange := backend.AsRange(want); isRange {
				continue
			}
			if fmt.Sprint(core.GetPath(row, col)) != fmt.Sprint(want) {
				keep = false
			}
		}
		if keep {
			matched = append(matched, row)
		}
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = len(matched) + 1
	}
	totalPages := backend.TotalPages(len(matched), pageSize)
	page := min(max(q.Page, 1), max(totalPages, 1))

	start := min((page-1)*pageSize, len(matched))
	end := min(start+pageSize, len(matched))
	items := make([]core.Row, 0, end-start)
	for _, row := range matched[start:end] {
		items = append(items, row.Clone())
	}

	return &backend.Page{
		Items: items,
		Pagination: backend.Pagination{
			TotalItems:  len(matched),
			TotalPages:  totalPages,
			CurrentPage: page,
			PageSize:    pageSize,
		},
	}, nil
}

func (m *memoryStore) Insert(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := row.Clone()
	saved["id"] = float64(len(m.rows) + 1)
	m.rows = append(m.rows, saved)
	m.inserted = append(m.inserted, saved)
	return saved.Clone(), nil
}

func (m *memoryStore) Update(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, _ := row.ID()
	i := m.find(id)
	if i < 0 {
		return nil, fmt.Errorf("%s %v: %w", endpoint, id, core.ErrNotFound)
	}
	m.rows[i] = row.Clone()
	m.updated = append(m.updated, row.Clone())
	return row.Clone(), nil
}

func (m *memoryStore) Delete(ctx context.Context, endpoint string, id any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.find(id)
	if i < 0 {
		return fmt.Errorf("%s %v: %w", endpoint, id, core.ErrNotFound)
	}
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryStore) BulkUpsert(ctx context.Context, endpoint string, rows []core.Row) ([]core.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.Row, 0, len(rows))
	for _, row := range rows {
		saved := row.Clone()
		if id, ok := row.ID(); ok {
			if i := m.find(id); i >= 0 {
				m.rows[i] = saved
				out = append(out, saved.Clone())
				continue
			}
		} else {
			saved["id"] = float64(len(m.rows) + 1)
		}
		m.rows = append(m.rows, saved)
		out = append(out, saved.Clone())
	}
	return out, nil
}

func (m *memoryStore) BulkDelete(ctx context.Context, endpoint string, ids []any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, id := range ids {
		if i := m.find(id); i >= 0 {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			m.deleted = append(m.deleted, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) Populate(ctx context.Context, endpoint, field, source string) ([]core.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if field != "category_id" {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownColumn, field)
	}
	return m.options, nil
}

func (m *memoryStore) Select(ctx context.Context, endpoint string, columns []string) ([]core.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.Row, 0, len(m.rows))
	for _, row := range m.rows {
		picked := core.Row{}
		for _, col := range columns {
			picked[col] = row[col]
		}
		out = append(out, picked)
	}
	return out, nil
}

func (m *memoryStore) UpdateWhere(ctx context.Context, endpoint, column string, value any, patch core.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateWhere = []any{column, value, patch}
	for _, row := range m.rows {
		if fmt.Sprint(row[column]) == fmt.Sprint(value) {
			for k, v := range patch {
				row[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("%s %s=%v: %w", endpoint, column, value, core.ErrNotFound)
}

func (m *memoryStore) SaveFilter(ctx context.Context, f core.SavedFilter) (*core.SavedFilter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f.ID = fmt.Sprintf("f%d", len(m.filters)+1)
	m.filters = append(m.filters, f)
	return &f, nil
}

func (m *memoryStore) ListFilters(ctx context.Context, table, user string) ([]core.SavedFilter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.SavedFilter
	for _, f := range m.filters {
		if f.TableName == table && f.CreatedBy == user {
			out = append(out, f)
		}
	}
	return out, nil
}
