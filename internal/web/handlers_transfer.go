package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/grid"
	"github.com/JonMunkholm/datagrid/internal/logging"
)

// multipartMemory is how much of a multipart upload is held in memory.
const multipartMemory = 32 << 20

// handleExport streams every row matching the query as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)
	if !def.Export.Enabled {
		respondError(w, r, grid.ErrFeatureDisabled, http.StatusForbidden)
		return
	}

	q, err := backend.DecodeQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, core.ValidationError{Message: err.Error()}, http.StatusBadRequest)
		return
	}
	s.applyQueryDefaults(def, &q)

	filename := fmt.Sprintf("%s_%s.csv", def.Info.Key, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))

	n, err := grid.Export(r.Context(), s.store, def, q, w)
	logger := logging.WithFields(r.Context(), "table", def.Info.Key, "rows", n)
	if err != nil {
		// Headers and part of the body are already sent
		logger.Error("export failed", "error", err)
		return
	}
	logger.Info("export completed")
}

// handleImport reads a CSV upload, either as the "file" field of a
// multipart form or as the raw request body, and upserts its rows.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)
	if !def.Import.Enabled {
		respondError(w, r, grid.ErrFeatureDisabled, http.StatusForbidden)
		return
	}

	release, err := s.imports.Acquire(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer release()

	importID := uuid.NewString()
	logger := logging.WithFields(r.Context(), "table", def.Info.Key, "import_id", importID)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	src, closeSrc, err := importSource(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer closeSrc()

	start := time.Now()
	logger.Info("import started")

	result, err := grid.Import(r.Context(), s.store, def, src, s.cfg.Import.BatchSize)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, err, http.StatusRequestEntityTooLarge)
			return
		}
		logger.Error("import failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		respondError(w, r, err, 0)
		return
	}

	logger.Info("import completed",
		"total", result.TotalRows,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	w.Header().Set("X-Import-ID", importID)
	writeJSON(w, http.StatusOK, result)
}

// handleImportPreview reports what an import of the uploaded CSV would do
// without writing anything.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)
	if !def.Import.Enabled {
		respondError(w, r, grid.ErrFeatureDisabled, http.StatusForbidden)
		return
	}

	release, err := s.imports.Acquire(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	src, closeSrc, err := importSource(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer closeSrc()

	result, err := grid.Preview(r.Context(), s.store, def, src, grid.DefaultPreviewSamples)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, err, http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, err, 0)
		return
	}

	logging.WithFields(r.Context(), "table", def.Info.Key).Debug("import preview",
		"total", result.Summary.TotalRows,
		"errors", result.Summary.ErrorRows,
	)
	writeJSON(w, http.StatusOK, result)
}

// handleTemplate downloads an empty CSV with the importable columns.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	def := tableFrom(r)
	if !def.Import.Enabled {
		respondError(w, r, grid.ErrFeatureDisabled, http.StatusForbidden)
		return
	}

	filename := def.Info.Key + "_template.csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	if err := grid.WriteTemplate(def, w); err != nil {
		logging.WithFields(r.Context(), "table", def.Info.Key).Error("template failed", "error", err)
	}
}

// importSource returns the CSV stream of an import request.
func importSource(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", errNoFile, err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errNoFile
	}
	return file, func() { file.Close() }, nil
}
