package web

import (
	"net/http"

	"github.com/JonMunkholm/datagrid/internal/core"
)

// userFrom returns the caller's user ID or a validation error.
func userFrom(r *http.Request) (string, error) {
	user := core.UserIDFromContext(r.Context())
	if user == "" {
		return "", core.ValidationError{Field: "user", Message: "X-User-ID header is required"}
	}
	return user, nil
}

// handleSaveFilter stores a named filter set for the calling user.
func (s *Server) handleSaveFilter(w http.ResponseWriter, r *http.Request) {
	var f core.SavedFilter
	if err := decodeJSON(w, r, &f); err != nil {
		respondError(w, r, err, 0)
		return
	}

	user, err := userFrom(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if _, err := core.Lookup(f.TableName); err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}
	if f.Name == "" {
		respondError(w, r, core.ValidationError{Field: "name", Message: "filter name is required"}, http.StatusBadRequest)
		return
	}
	f.CreatedBy = user

	saved, err := s.store.SaveFilter(r.Context(), f)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// handleListFilters returns the calling user's filters for ?table=.
func (s *Server) handleListFilters(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	table := r.URL.Query().Get("table")
	if _, err := core.Lookup(table); err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	filters, err := s.store.ListFilters(r.Context(), table, user)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	if filters == nil {
		filters = []core.SavedFilter{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"filters": filters})
}
