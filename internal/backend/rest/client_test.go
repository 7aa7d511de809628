package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

func TestClient_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tables/users/rows" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("filter[status]"); got != "active" {
			t.Errorf("filter[status] = %q, want active", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page = %q, want 2", got)
		}
		if got := r.Header.Get(HeaderAPIKey); got != "secret" {
			t.Errorf("api key = %q", got)
		}
		json.NewEncoder(w).Encode(backend.Page{
			Items:      []core.Row{{"id": 11, "name": "Ada"}},
			Pagination: backend.Pagination{TotalItems: 11, TotalPages: 2, CurrentPage: 2, PageSize: 10},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIKey("secret"))
	page, err := c.Query(context.Background(), "users", backend.Query{
		Page: 2, PageSize: 10, Filters: map[string]any{"status": "active"},
	})
	if err != nil {
		t.Fatalf("Query = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0]["name"] != "Ada" {
		t.Errorf("Items = %v", page.Items)
	}
	if page.Pagination.TotalPages != 2 || page.Pagination.CurrentPage != 2 {
		t.Errorf("Pagination = %+v", page.Pagination)
	}
}

func TestClient_Update(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/tables/users/rows/5" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var row core.Row
		json.NewDecoder(r.Body).Decode(&row)
		row["updated_at"] = "2024-01-01T00:00:00.000Z"
		json.NewEncoder(w).Encode(row)
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Update(context.Background(), "users", core.Row{"id": float64(5), "name": "Bob"})
	if err != nil {
		t.Fatalf("Update = %v", err)
	}
	if got["name"] != "Bob" || got["updated_at"] == nil {
		t.Errorf("Update = %v", got)
	}

	if _, err := c.Update(context.Background(), "users", core.Row{"name": "x"}); !errors.Is(err, core.ErrMissingID) {
		t.Errorf("Update without id = %v, want ErrMissingID", err)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found", http.StatusNotFound, `{"status":404,"message":"Record not found","code":"REC003"}`, core.ErrNotFound},
		{"unknown table", http.StatusNotFound, `{"message":"Unknown table","code":"TBL001"}`, core.ErrNotFound},
		{"missing id", http.StatusBadRequest, `{"status":400,"message":"Row has no identifier","code":"REC002"}`, core.ErrMissingID},
		{"unknown column", http.StatusBadRequest, `{"message":"Unknown column","code":"VAL007"}`, core.ErrUnknownColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := New(srv.URL).Delete(context.Background(), "users", 1)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete = %v, want %v", err, tt.wantErr)
			}
			var se *backend.StatusError
			if !errors.As(err, &se) || se.Status != tt.status {
				t.Errorf("StatusError = %+v, want status %d", se, tt.status)
			}
		})
	}
}

func TestClient_ValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":400,"message":"Invalid email address","code":"VAL004"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Insert(context.Background(), "users", core.Row{"email": "x"})
	var ve core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Insert = %v, want ValidationError", err)
	}
	if ve.Message != "Invalid email address" {
		t.Errorf("Message = %q", ve.Message)
	}
}

func TestClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Select(context.Background(), "tasks", []string{"id"})
	var se *backend.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Select = %v, want StatusError", err)
	}
	if se.Status != http.StatusBadGateway || se.Message != "upstream exploded" {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestClient_BulkAndFilters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tables/tasks/bulk-delete", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			IDs []any `json:"ids"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]int{"deleted": len(body.IDs)})
	})
	mux.HandleFunc("/api/tables/invoices/populate", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("field") != "product" || r.URL.Query().Get("source") != "product_name" {
			t.Errorf("populate query = %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{"options": []core.Option{{Value: "1", Label: "Lamp"}}})
	})
	mux.HandleFunc("/api/filters", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(HeaderUserID); got != "u1" {
			t.Errorf("user header = %q, want u1", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"filters": []core.SavedFilter{{ID: "f1", Name: "Active"}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, WithUserID("u1"))
	ctx := context.Background()

	n, err := c.BulkDelete(ctx, "tasks", []any{1, 2, 3})
	if err != nil || n != 3 {
		t.Errorf("BulkDelete = %d, %v; want 3", n, err)
	}

	opts, err := c.Populate(ctx, "invoices", "product", "product_name")
	if err != nil || len(opts) != 1 || opts[0].Label != "Lamp" {
		t.Errorf("Populate = %v, %v", opts, err)
	}

	filters, err := c.ListFilters(ctx, "tasks", "u1")
	if err != nil || len(filters) != 1 || filters[0].ID != "f1" {
		t.Errorf("ListFilters = %v, %v", filters, err)
	}
}
