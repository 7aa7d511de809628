package web

import (
	"context"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/grid"
	"github.com/JonMunkholm/datagrid/internal/web/templates"
)

// endpointParam returns the unescaped {endpoint} URL parameter.
func endpointParam(r *http.Request) string {
	p := chi.URLParam(r, "endpoint")
	if v, err := url.PathUnescape(p); err == nil {
		return v
	}
	return p
}

// handleListTables returns every registered table definition.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tables": core.All()})
}

// handleGetTable returns one table definition.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tableFrom(r))
}

// applyQueryDefaults fills in the table's page size and search column.
func (s *Server) applyQueryDefaults(def core.TableDefinition, q *backend.Query) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = def.Pagination.PageSize
	}
	if q.PageSize <= 0 {
		q.PageSize = s.cfg.Grid.PageSize
	}
	if q.SearchQuery != "" && q.SearchColumn == "" {
		q.SearchColumn = def.SearchColumn()
	}
}

// handleDashboard renders the list of tables by group.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var groups []templates.TableGroup
	for _, name := range core.Groups() {
		g := templates.TableGroup{Name: name}
		for _, def := range core.ByGroup(name) {
			g.Tables = append(g.Tables, templates.TableLink{
				Key:         url.PathEscape(def.Info.Key),
				Title:       tableTitle(def),
				Description: def.Info.Description,
			})
		}
		groups = append(groups, g)
	}
	templ.Handler(templates.Dashboard(groups)).ServeHTTP(w, r)
}

// handleTablePage renders one page of a table.
func (s *Server) handleTablePage(w http.ResponseWriter, r *http.Request) {
	def, err := core.Lookup(endpointParam(r))
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	q, err := backend.DecodeQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, core.ValidationError{Message: err.Error()}, http.StatusBadRequest)
		return
	}
	s.applyQueryDefaults(def, &q)

	req := grid.RequestFromQuery(def.Info.Key, q)
	page, err := grid.NewFetcher(s.store, s.cfg.Grid.RequestTimeout).Fetch(r.Context(), req)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	templ.Handler(templates.TablePage(s.tablePageData(def, req, page))).ServeHTTP(w, r)
}

// tablePageData formats a fetched page for the table template.
func (s *Server) tablePageData(def core.TableDefinition, req grid.Request, page *backend.Page) templates.TablePageData {
	path := "/table/" + url.PathEscape(def.Info.Key)

	req.PageIndex = max(page.Pagination.CurrentPage-1, 0)
	p := grid.Pagination{
		PageIndex:  req.PageIndex,
		PageSize:   page.Pagination.PageSize,
		TotalPages: page.Pagination.TotalPages,
		TotalItems: page.Pagination.TotalItems,
	}

	data := templates.TablePageData{
		Title:       tableTitle(def),
		Description: def.Info.Description,
		Endpoint:    def.Info.Key,
		Search:      req.SearchQuery,
		Page:        p.PageIndex + 1,
		TotalPages:  p.TotalPages,
		TotalItems:  p.TotalItems,
	}

	var columns []core.Column
	for _, col := range def.Columns {
		if !col.Hidden {
			columns = append(columns, col)
		}
	}

	for _, col := range columns {
		hc := templates.HeaderCell{Label: col.Header, Direction: grid.SortNone.String()}
		if hc.Label == "" {
			hc.Label = col.Key
		}
		if req.Sort.Column == col.Key {
			hc.Direction = req.Sort.Direction.String()
		}
		if col.Sortable {
			next := req
			next.Sort = req.Sort.Next(col.Key)
			next.PageIndex = 0
			hc.SortURL = pageURL(path, next)
		}
		data.Headers = append(data.Headers, hc)
	}

	for _, row := range page.Items {
		cells := make([]templates.Cell, len(columns))
		for i, col := range columns {
			cells[i].Text = s.format.Cell(col, row, nil)
			if grid.IsStatusColumn(col.Key) {
				if v, ok := core.GetPath(row, col.Key).(string); ok {
					cells[i].Class = grid.StatusStyle(v)
				}
			}
		}
		data.Rows = append(data.Rows, cells)
	}

	if p.CanPrev() {
		prev := req
		prev.PageIndex--
		data.PrevURL = pageURL(path, prev)
	}
	if p.CanNext() {
		next := req
		next.PageIndex++
		data.NextURL = pageURL(path, next)
	}
	if def.Export.Enabled {
		export := req
		export.PageIndex, export.PageSize = 0, 0
		data.ExportURL = pageURL("/api/tables/"+url.PathEscape(def.Info.Key)+"/export", export)
	}
	return data
}

// pageURL renders req as a link to path.
func pageURL(path string, req grid.Request) string {
	v := backend.EncodeQuery(req.Query())
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func tableTitle(def core.TableDefinition) string {
	switch {
	case def.Info.Title != "":
		return def.Info.Title
	case def.Info.Label != "":
		return def.Info.Label
	}
	return def.Info.Key
}

// historyReader is implemented by stores that keep an audit trail.
type historyReader interface {
	History(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error)
}

// handleHistory lists the audit entries of a table, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)
	hr, ok := s.store.(historyReader)
	if !ok {
		respondError(w, r, errNoAudit, http.StatusNotFound)
		return
	}

	f, err := core.ParseAuditFilter(def.Info.Key, r.URL.Query().Get)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	entries, err := hr.History(r.Context(), f)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"limit":   f.Limit,
		"offset":  f.Offset,
	})
}
