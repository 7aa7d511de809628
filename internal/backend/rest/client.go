// Package rest implements backend.Backend over HTTP against a datagrid
// server. It lets the terminal client drive the same grid controller the
// server uses.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

// Headers understood by the server.
const (
	HeaderAPIKey = "X-API-Key"
	HeaderUserID = "X-User-ID"
)

// Client talks to the datagrid JSON API.
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	http    *http.Client
}

var _ backend.Backend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithUserID sends id in the X-User-ID header.
func WithUserID(id string) Option {
	return func(c *Client) { c.userID = id }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody is the server's JSON error shape.
type errorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func tablePath(endpoint string, parts ...string) string {
	p := "/api/tables/" + url.PathEscape(endpoint)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, headers ...string) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}
	if c.userID != "" {
		req.Header.Set(HeaderUserID, c.userID)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		if headers[i+1] != "" {
			req.Header.Set(headers[i], headers[i+1])
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError turns an error response into a *backend.StatusError whose
// cause matches the core sentinel errors where the code allows.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil || (eb.Message == "" && eb.Error == "") {
		eb.Message = strings.TrimSpace(string(data))
		if eb.Message == "" {
			eb.Message = http.StatusText(resp.StatusCode)
		}
	}
	if eb.Message == "" {
		eb.Message = eb.Error
	}

	se := &backend.StatusError{Status: resp.StatusCode, Message: eb.Message}
	switch {
	case resp.StatusCode == http.StatusNotFound || eb.Code == "REC003":
		se.Err = core.ErrNotFound
	case eb.Code == "REC002":
		se.Err = core.ErrMissingID
	case eb.Code == "TBL001":
		se.Err = core.ErrUnknownTable
	case eb.Code == "VAL007":
		se.Err = core.ErrUnknownColumn
	case strings.HasPrefix(eb.Code, "VAL"):
		se.Err = core.ValidationError{Message: eb.Message}
	}
	return se
}

// Query fetches one page of rows.
func (c *Client) Query(ctx context.Context, endpoint string, q backend.Query) (*backend.Page, error) {
	var page backend.Page
	if err := c.do(ctx, http.MethodGet, tablePath(endpoint, "rows"), backend.EncodeQuery(q), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Insert creates a row.
func (c *Client) Insert(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	var out core.Row
	if err := c.do(ctx, http.MethodPost, tablePath(endpoint, "rows"), nil, row, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the fields of an existing row.
func (c *Client) Update(ctx context.Context, endpoint string, row core.Row) (core.Row, error) {
	id, ok := row.ID()
	if !ok {
		return nil, core.ErrMissingID
	}
	var out core.Row
	path := tablePath(endpoint, "rows", url.PathEscape(core.IDString(id)))
	if err := c.do(ctx, http.MethodPut, path, nil, row, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a row.
func (c *Client) Delete(ctx context.Context, endpoint string, id any) error {
	path := tablePath(endpoint, "rows", url.PathEscape(core.IDString(id)))
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

type rowsBody struct {
	Rows []core.Row `json:"rows"`
}

// BulkUpsert inserts or updates many rows in one request.
func (c *Client) BulkUpsert(ctx context.Context, endpoint string, rows []core.Row) ([]core.Row, error) {
	var out rowsBody
	if err := c.do(ctx, http.MethodPost, tablePath(endpoint, "bulk-upsert"), nil, rowsBody{Rows: rows}, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

// BulkDelete removes many rows by id.
func (c *Client) BulkDelete(ctx context.Context, endpoint string, ids []any) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	body := map[string]any{"ids": ids}
	if err := c.do(ctx, http.MethodPost, tablePath(endpoint, "bulk-delete"), nil, body, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// Populate fetches options for a select column.
func (c *Client) Populate(ctx context.Context, endpoint, field, source string) ([]core.Option, error) {
	var out struct {
		Options []core.Option `json:"options"`
	}
	q := url.Values{"field": {field}, "source": {source}}
	if err := c.do(ctx, http.MethodGet, tablePath(endpoint, "populate"), q, nil, &out); err != nil {
		return nil, err
	}
	return out.Options, nil
}

// Select returns the given columns of every row.
func (c *Client) Select(ctx context.Context, endpoint string, columns []string) ([]core.Row, error) {
	var out rowsBody
	q := url.Values{"columns": {strings.Join(columns, ",")}}
	if err := c.do(ctx, http.MethodGet, tablePath(endpoint, "select"), q, nil, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

// UpdateWhere patches rows whose column equals value.
func (c *Client) UpdateWhere(ctx context.Context, endpoint, column string, value any, patch core.Row) error {
	body := map[string]any{"column": column, "value": value, "patch": patch}
	return c.do(ctx, http.MethodPost, tablePath(endpoint, "match-update"), nil, body, nil)
}

// SaveFilter stores a named filter for the filter's owner.
func (c *Client) SaveFilter(ctx context.Context, f core.SavedFilter) (*core.SavedFilter, error) {
	var out core.SavedFilter
	if err := c.do(ctx, http.MethodPost, "/api/filters", nil, f, &out, HeaderUserID, f.CreatedBy); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListFilters returns a user's saved filters for a table.
func (c *Client) ListFilters(ctx context.Context, table, user string) ([]core.SavedFilter, error) {
	var out struct {
		Filters []core.SavedFilter `json:"filters"`
	}
	q := url.Values{"table": {table}}
	if err := c.do(ctx, http.MethodGet, "/api/filters", q, nil, &out, HeaderUserID, user); err != nil {
		return nil, err
	}
	return out.Filters, nil
}

// Tables lists the table definitions the server exposes.
func (c *Client) Tables(ctx context.Context) ([]core.TableDefinition, error) {
	var out struct {
		Tables []core.TableDefinition `json:"tables"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tables", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Tables, nil
}
