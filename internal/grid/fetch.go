package grid

import (
	"context"
	"time"

	"github.com/JonMunkholm/datagrid/internal/backend"
)

// DefaultRequestTimeout bounds every backend call made by the grid.
const DefaultRequestTimeout = 15 * time.Second

// Fetcher loads pages from a backend.
type Fetcher struct {
	backend backend.Backend
	timeout time.Duration
}

// NewFetcher creates a Fetcher. A zero timeout uses DefaultRequestTimeout.
func NewFetcher(b backend.Backend, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Fetcher{backend: b, timeout: timeout}
}

// Fetch issues one query for req. Any failure, including a timeout, is
// returned as a *FetchError. The result never holds more than PageSize
// items and its total page count is derived from the total item count.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*backend.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.backend.Query(ctx, req.Endpoint, req.Query())
	if err != nil {
		return nil, &FetchError{Endpoint: req.Endpoint, Err: err}
	}
	if page == nil {
		return nil, &FetchError{Endpoint: req.Endpoint, Err: errNoData}
	}

	p := page.Pagination
	if p.PageSize <= 0 {
		p.PageSize = req.PageSize
	}
	if p.PageSize > 0 && len(page.Items) > p.PageSize {
		page.Items = page.Items[:p.PageSize]
	}
	p.TotalPages = backend.TotalPages(p.TotalItems, p.PageSize)
	if p.CurrentPage < 1 {
		p.CurrentPage = req.PageIndex + 1
	}
	page.Pagination = p
	return page, nil
}
