// Package web provides the HTTP server: the JSON table API the terminal
// client talks to and a read-only HTML view of each table.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/config"
	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/grid"
	"github.com/JonMunkholm/datagrid/internal/web/middleware"
)

// Server is the HTTP server for the datagrid API and pages.
type Server struct {
	store   backend.Backend
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	imports *core.ImportLimiter
	format  *grid.Formatter
	rules   *core.RuleValidator
}

// NewServer creates a Server backed by store.
func NewServer(store backend.Backend, cfg *config.Config) (*Server, error) {
	opts, err := grid.ParseFormatterOptions(cfg.Grid.Locale, cfg.Grid.Currency, cfg.Grid.TimeZone)
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:   store,
		cfg:     cfg,
		router:  chi.NewRouter(),
		imports: core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		format:  grid.NewFormatter(opts...),
		rules:   core.Rules(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/table/{endpoint}", s.handleTablePage)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))
		r.Use(requestMetadata)

		r.Get("/tables", s.handleListTables)

		r.Route("/tables/{endpoint}", func(r chi.Router) {
			r.Use(s.requireTable)

			r.Get("/", s.handleGetTable)

			// Rows
			r.Get("/rows", s.handleQueryRows)
			r.Post("/rows", s.handleInsertRow)
			r.Put("/rows/{id}", s.handleUpdateRow)
			r.Delete("/rows/{id}", s.handleDeleteRow)

			// Bulk operations
			r.Post("/bulk-upsert", s.handleBulkUpsert)
			r.Post("/bulk-delete", s.handleBulkDelete)
			r.Post("/match-update", s.handleMatchUpdate)

			// Select options and kanban reads
			r.Get("/populate", s.handlePopulate)
			r.Get("/select", s.handleSelect)

			// CSV transfer
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
			r.Post("/import/preview", s.handleImportPreview)
			r.Get("/template", s.handleTemplate)

			// Audit trail
			r.Get("/history", s.handleHistory)
		})

		// Saved filters
		r.Get("/filters", s.handleListFilters)
		r.Post("/filters", s.handleSaveFilter)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and waits for running imports.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.imports.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"tables":  core.TableCount(),
		"imports": s.imports.Status(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			if enableCSP {
				// Pages carry their styles inline and load no scripts
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
