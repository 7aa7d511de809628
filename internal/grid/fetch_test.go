package grid

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

func TestSortState_Next(t *testing.T) {
	var s SortState

	steps := []struct {
		click string
		want  SortState
	}{
		{"name", SortState{"name", SortAsc}},
		{"name", SortState{"name", SortDesc}},
		{"name", SortState{}},
		{"name", SortState{"name", SortAsc}},
		{"price", SortState{"price", SortAsc}},
	}
	for i, step := range steps {
		s = s.Next(step.click)
		if s != step.want {
			t.Errorf("step %d: Next(%s) = %+v, want %+v", i, step.click, s, step.want)
		}
	}
}

func TestSortState_Backend(t *testing.T) {
	tests := []struct {
		in   SortState
		want backend.Sort
	}{
		{SortState{}, backend.Sort{}},
		{SortState{"name", SortNone}, backend.Sort{}},
		{SortState{"name", SortAsc}, backend.Sort{Column: "name", Ascending: true}},
		{SortState{"name", SortDesc}, backend.Sort{Column: "name"}},
	}
	for _, tt := range tests {
		if got := tt.in.Backend(); got != tt.want {
			t.Errorf("Backend(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestRequest_Query(t *testing.T) {
	req := Request{
		Endpoint:     "users",
		PageIndex:    2,
		PageSize:     10,
		Filters:      []Filter{{"status", "active"}, {"name", ""}, {"age", []any{18, 65}}},
		Sort:         SortState{"name", SortDesc},
		SearchColumn: "name",
	}

	q := req.Query()
	if q.Page != 3 || q.PageSize != 10 {
		t.Errorf("Page, PageSize = %d, %d, want 3, 10", q.Page, q.PageSize)
	}
	if len(q.Filters) != 2 || q.Filters["status"] != "active" {
		t.Errorf("Filters = %v, want status and age only", q.Filters)
	}
	if q.SearchColumn != "" {
		t.Errorf("SearchColumn = %q without a search term, want empty", q.SearchColumn)
	}

	req.SearchQuery = "ad"
	if q := req.Query(); q.SearchColumn != "name" || q.SearchQuery != "ad" {
		t.Errorf("search = %q/%q, want name/ad", q.SearchColumn, q.SearchQuery)
	}
}

func TestPagination_Bounds(t *testing.T) {
	tests := []struct {
		p       Pagination
		canPrev bool
		canNext bool
	}{
		{Pagination{PageIndex: 0, TotalPages: 0}, false, false},
		{Pagination{PageIndex: 0, TotalPages: 3}, false, true},
		{Pagination{PageIndex: 1, TotalPages: 3}, true, true},
		{Pagination{PageIndex: 2, TotalPages: 3}, true, false},
	}
	for _, tt := range tests {
		if tt.p.CanPrev() != tt.canPrev || tt.p.CanNext() != tt.canNext {
			t.Errorf("%+v: CanPrev = %v, CanNext = %v", tt.p, tt.p.CanPrev(), tt.p.CanNext())
		}
	}
}

func TestFetcher_Fetch(t *testing.T) {
	var rows []core.Row
	for i := range 12 {
		rows = append(rows, core.Row{"id": float64(i + 1), "name": fmt.Sprintf("user %d", i+1)})
	}

	fb := newFakeBackend()
	fb.queryFn = func(ctx context.Context, q backend.Query) (*backend.Page, error) {
		// Misbehaving server: returns more items than asked and a wrong page count.
		return &backend.Page{
			Items:      rows,
			Pagination: backend.Pagination{TotalItems: 25, TotalPages: 1, PageSize: 10},
		}, nil
	}

	page, err := NewFetcher(fb, time.Second).Fetch(context.Background(), Request{Endpoint: "users", PageIndex: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Fetch = %v", err)
	}
	if len(page.Items) != 10 {
		t.Errorf("len(Items) = %d, want 10", len(page.Items))
	}
	if page.Pagination.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", page.Pagination.TotalPages)
	}
	if page.Pagination.CurrentPage != 2 {
		t.Errorf("CurrentPage = %d, want 2", page.Pagination.CurrentPage)
	}
}

func TestFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		queryFn func(ctx context.Context, q backend.Query) (*backend.Page, error)
		want    error
	}{
		{"backend error", func(ctx context.Context, q backend.Query) (*backend.Page, error) {
			return nil, core.ErrUnknownTable
		}, core.ErrUnknownTable},
		{"no data", func(ctx context.Context, q backend.Query) (*backend.Page, error) {
			return nil, nil
		}, errNoData},
		{"timeout", func(ctx context.Context, q backend.Query) (*backend.Page, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend()
			fb.queryFn = tt.queryFn

			_, err := NewFetcher(fb, 20*time.Millisecond).Fetch(context.Background(), Request{Endpoint: "users", PageSize: 10})
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("Fetch = %v, want *FetchError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Fetch = %v, want %v", err, tt.want)
			}
			if fetchErr.Endpoint != "users" {
				t.Errorf("Endpoint = %q, want users", fetchErr.Endpoint)
			}
		})
	}
}

func TestRequestFromQuery(t *testing.T) {
	q := backend.Query{
		Page:         3,
		PageSize:     25,
		Sort:         backend.Sort{Column: "name"},
		SearchColumn: "name",
		SearchQuery:  "ada",
		Filters: map[string]any{
			"status": "active",
			"price":  backend.Range{Lo: "10", Hi: "20"},
		},
	}

	req := RequestFromQuery("users", q)
	if req.Endpoint != "users" || req.PageIndex != 2 || req.PageSize != 25 {
		t.Errorf("request = %+v, want users page index 2 size 25", req)
	}
	if req.Sort != (SortState{Column: "name", Direction: SortDesc}) {
		t.Errorf("Sort = %+v, want name desc", req.Sort)
	}
	if len(req.Filters) != 2 || req.Filters[0].Column != "price" || req.Filters[1].Column != "status" {
		t.Errorf("Filters = %+v, want price then status", req.Filters)
	}

	back := req.Query()
	if back.Page != 3 || back.Sort != q.Sort || back.SearchQuery != "ada" {
		t.Errorf("round trip = %+v, want %+v", back, q)
	}

	if got := RequestFromQuery("users", backend.Query{}); got.PageIndex != 0 {
		t.Errorf("PageIndex for page 0 = %d, want 0", got.PageIndex)
	}
}
