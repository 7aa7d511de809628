package grid

import (
	"maps"
	"slices"

	"github.com/JonMunkholm/datagrid/internal/backend"
)

// Direction is a column's sort direction.
type Direction int

const (
	SortNone Direction = iota
	SortAsc
	SortDesc
)

func (d Direction) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	}
	return "none"
}

// SortState is the active sort: at most one column.
type SortState struct {
	Column    string
	Direction Direction
}

// Next returns the state after a click on column. Repeated clicks on the
// same column cycle asc, desc, none; a different column starts at asc.
func (s SortState) Next(column string) SortState {
	if s.Column != column || s.Direction == SortNone {
		return SortState{Column: column, Direction: SortAsc}
	}
	if s.Direction == SortAsc {
		return SortState{Column: column, Direction: SortDesc}
	}
	return SortState{}
}

// Backend converts the state to a backend sort. No sort leaves the column
// empty so the store falls back to id ascending.
func (s SortState) Backend() backend.Sort {
	if s.Column == "" || s.Direction == SortNone {
		return backend.Sort{}
	}
	return backend.Sort{Column: s.Column, Ascending: s.Direction == SortAsc}
}

// Filter is one column filter. A two-element value is an inclusive range.
type Filter struct {
	Column string
	Value  any
}

// Pagination is the page state shown to the user. Totals come from the
// last response, not from what was requested.
type Pagination struct {
	PageIndex  int // 0-based
	PageSize   int
	TotalPages int
	TotalItems int
}

// CanPrev reports whether a previous page exists.
func (p Pagination) CanPrev() bool {
	return p.PageIndex > 0
}

// CanNext reports whether a next page exists.
func (p Pagination) CanNext() bool {
	return p.PageIndex+1 < p.TotalPages
}

// Request is everything needed to fetch one page.
type Request struct {
	Endpoint     string
	PageIndex    int // 0-based
	PageSize     int
	Filters      []Filter
	Sort         SortState
	SearchColumn string
	SearchQuery  string
}

// Query converts the request into a backend query with a 1-based page.
func (r Request) Query() backend.Query {
	q := backend.Query{
		Page:         r.PageIndex + 1,
		PageSize:     r.PageSize,
		Sort:         r.Sort.Backend(),
		SearchColumn: r.SearchColumn,
		SearchQuery:  r.SearchQuery,
	}
	if q.SearchQuery == "" {
		q.SearchColumn = ""
	}
	for _, f := range r.Filters {
		if backend.IsBlank(f.Value) {
			continue
		}
		if q.Filters == nil {
			q.Filters = make(map[string]any, len(r.Filters))
		}
		q.Filters[f.Column] = f.Value
	}
	return q
}

// RequestFromQuery converts a decoded backend query into a page request.
// Filters are ordered by column.
func RequestFromQuery(endpoint string, q backend.Query) Request {
	req := Request{
		Endpoint:     endpoint,
		PageIndex:    max(q.Page-1, 0),
		PageSize:     q.PageSize,
		SearchColumn: q.SearchColumn,
		SearchQuery:  q.SearchQuery,
	}
	if q.Sort.Column != "" {
		req.Sort = SortState{Column: q.Sort.Column, Direction: SortDesc}
		if q.Sort.Ascending {
			req.Sort.Direction = SortAsc
		}
	}
	columns := slices.Sorted(maps.Keys(q.Filters))
	for _, col := range columns {
		req.Filters = append(req.Filters, Filter{Column: col, Value: q.Filters[col]})
	}
	return req
}
