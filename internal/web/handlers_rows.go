package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/logging"
)

// maxJSONBody caps JSON request bodies (10MB).
const maxJSONBody = 10 << 20

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return core.ValidationError{Message: "invalid request body"}
	}
	return nil
}

// prepareRow parses string values of typed columns and applies column rules
// before a row reaches the store. With partial set only editable columns
// present in the row are checked; otherwise every column is, so required
// rules catch missing fields.
func (s *Server) prepareRow(def core.TableDefinition, row core.Row, partial bool) error {
	for _, col := range def.Columns {
		if col.Key == "id" {
			continue
		}
		present := hasPath(row, col.Key)
		if partial && (!present || !col.Editable) {
			continue
		}

		v := core.GetPath(row, col.Key)
		if raw, ok := v.(string); ok && isTyped(col) {
			parsed, err := core.ParseCell(col, raw)
			if err != nil {
				return err
			}
			v = parsed
			if present {
				core.SetPath(row, col.Key, v)
			}
		}
		if err := s.rules.Check(col, v); err != nil {
			return err
		}
	}
	return nil
}

// isTyped reports whether col's string input needs parsing.
func isTyped(col core.Column) bool {
	switch col.Type {
	case "", core.ColumnText, core.ColumnTextarea, core.ColumnEmail:
		return col.IsDate()
	}
	return true
}

// hasPath reports whether every segment of a dot path exists in row.
func hasPath(row core.Row, path string) bool {
	var cur any = map[string]any(row)
	for _, part := range strings.Split(path, ".") {
		var m map[string]any
		switch x := cur.(type) {
		case map[string]any:
			m = x
		case core.Row:
			m = x
		default:
			return false
		}
		v, ok := m[part]
		if !ok {
			return false
		}
		cur = v
	}
	return true
}

// handleQueryRows returns one page of rows.
//
// Query parameters follow backend.EncodeQuery:
//
//	page=2&pageSize=25&sort=name&dir=desc&search=ada&filter[status]=active&range[price][lo]=10&range[price][hi]=20
func (s *Server) handleQueryRows(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)

	q, err := backend.DecodeQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, core.ValidationError{Message: err.Error()}, http.StatusBadRequest)
		return
	}
	s.applyQueryDefaults(def, &q)

	page, err := s.store.Query(r.Context(), def.Info.Key, q)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	if page.Items == nil {
		page.Items = []core.Row{}
	}
	writeJSON(w, http.StatusOK, page)
}

// handleInsertRow creates a row.
func (s *Server) handleInsertRow(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)

	var row core.Row
	if err := decodeJSON(w, r, &row); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if err := s.prepareRow(def, row, false); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	saved, err := s.store.Insert(r.Context(), def.Info.Key, row)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	logging.WithFields(r.Context(), "table", def.Info.Key, "user", core.UserIDFromContext(r.Context())).
		Info("row inserted")
	writeJSON(w, http.StatusCreated, saved)
}

// handleUpdateRow replaces the fields of a row. Every failure is a 400 with
// {status, message, code}; the code tells a missing record apart.
func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)

	var row core.Row
	if err := decodeJSON(w, r, &row); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if _, ok := row.ID(); !ok {
		row["id"] = chi.URLParam(r, "id")
	}
	if err := s.prepareRow(def, row, true); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	saved, err := s.store.Update(r.Context(), def.Info.Key, row)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// handleDeleteRow removes a row by id.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)

	if err := s.store.Delete(r.Context(), def.Info.Key, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rowsRequest struct {
	Rows []core.Row `json:"rows"`
}

// handleBulkUpsert inserts or updates many rows at once.
func (s *Server) handleBulkUpsert(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)

	var req rowsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if len(req.Rows) == 0 {
		writeJSON(w, http.StatusOK, rowsRequest{Rows: []core.Row{}})
		return
	}
	for _, row := range req.Rows {
		_, hasID := row.ID()
		if err := s.prepareRow(def, row, hasID); err != nil {
			respondError(w, r, err, http.StatusBadRequest)
			return
		}
	}

	saved, err := s.store.BulkUpsert(r.Context(), def.Info.Key, req.Rows)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	logging.WithFields(r.Context(), "table", def.Info.Key).Info("bulk upsert", "rows", len(saved))
	writeJSON(w, http.StatusOK, rowsRequest{Rows: saved})
}

// handleBulkDelete removes many rows by id.
func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)

	var req struct {
		IDs []any `json:"ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, r, core.ValidationError{Field: "ids", Message: "no rows specified"}, http.StatusBadRequest)
		return
	}

	deleted, err := s.store.BulkDelete(r.Context(), def.Info.Key, req.IDs)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	logging.WithFields(r.Context(), "table", def.Info.Key).Info("bulk delete", "rows", deleted)
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// handleMatchUpdate patches the rows whose column equals value. The kanban
// board uses it to move a card.
func (s *Server) handleMatchUpdate(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)

	var req struct {
		Column string   `json:"column"`
		Value  any      `json:"value"`
		Patch  core.Row `json:"patch"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if req.Column == "" || len(req.Patch) == 0 {
		respondError(w, r, core.ValidationError{Message: "column and patch are required"}, http.StatusBadRequest)
		return
	}
	if err := s.prepareRow(def, req.Patch, true); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.store.UpdateWhere(r.Context(), def.Info.Key, req.Column, req.Value, req.Patch); err != nil {
		respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePopulate returns select options from the table a foreign key
// field references.
func (s *Server) handlePopulate(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)

	field := r.URL.Query().Get("field")
	source := r.URL.Query().Get("source")
	if field == "" || source == "" {
		respondError(w, r, core.ValidationError{Message: "field and source are required"}, http.StatusBadRequest)
		return
	}

	options, err := s.store.Populate(r.Context(), def.Info.Key, field, source)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	if options == nil {
		options = []core.Option{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": options})
}

// handleSelect returns the requested columns of every row.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)

	var columns []string
	for _, c := range strings.Split(r.URL.Query().Get("columns"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			columns = append(columns, c)
		}
	}
	if len(columns) == 0 {
		respondError(w, r, core.ValidationError{Field: "columns", Message: "at least one column is required"}, http.StatusBadRequest)
		return
	}

	rows, err := s.store.Select(r.Context(), def.Info.Key, columns)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	if rows == nil {
		rows = []core.Row{}
	}
	writeJSON(w, http.StatusOK, rowsRequest{Rows: rows})
}
