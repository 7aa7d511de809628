package handler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/datagrid/internal/grid"
)

// ImportedDir is the subdirectory imported files are moved to, so a file
// is never imported twice.
const ImportedDir = "imported"

// FileResult is the outcome of importing one file.
type FileResult struct {
	Name   string
	Result *grid.ImportResult
}

// ImportSummary totals an import run over a directory.
type ImportSummary struct {
	Files    []FileResult
	Inserted int
	Skipped  int
}

func (s ImportSummary) String() string {
	if len(s.Files) == 0 {
		return "No CSV files to import"
	}
	return fmt.Sprintf("Imported %d row(s) from %d file(s), skipped %d", s.Inserted, len(s.Files), s.Skipped)
}

// Importer upserts CSV rows into a table. grid.Controller implements it.
type Importer interface {
	Import(ctx context.Context, r io.Reader) (*grid.ImportResult, error)
}

// Exporter writes a table as CSV. grid.Controller implements it.
type Exporter interface {
	Export(ctx context.Context, w io.Writer) (int, error)
}

/* ----------------------------------------
	Import: every .csv file of a directory
---------------------------------------- */

// ProcessImport imports every .csv file in dir in name order. Each file
// is moved into dir/imported once its rows are saved. The first failing
// file stops the run; files before it stay imported.
func ProcessImport(ctx context.Context, imp Importer, dir string) (ImportSummary, error) {
	var summary ImportSummary

	names, err := csvFiles(dir)
	if err != nil {
		return summary, err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := importFile(ctx, imp, dir, name)
		if err != nil {
			return summary, fmt.Errorf("%s: %w", name, err)
		}
		summary.Files = append(summary.Files, FileResult{Name: name, Result: result})
		summary.Inserted += result.Inserted
		summary.Skipped += result.Skipped
	}
	return summary, nil
}

// csvFiles lists the .csv files directly in dir, sorted by name.
func csvFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func importFile(ctx context.Context, imp Importer, dir, name string) (*grid.ImportResult, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	result, err := imp.Import(ctx, f)
	f.Close()
	if err != nil {
		return nil, err
	}

	done := filepath.Join(dir, ImportedDir)
	if err := os.MkdirAll(done, 0o755); err != nil {
		return result, fmt.Errorf("create %s: %w", ImportedDir, err)
	}
	if err := os.Rename(path, filepath.Join(done, name)); err != nil {
		return result, fmt.Errorf("move imported file: %w", err)
	}
	return result, nil
}

// Previewer reports what an import would do. grid.Controller implements it.
type Previewer interface {
	PreviewImport(ctx context.Context, r io.Reader) (*grid.PreviewResult, error)
}

// ProcessPreview previews every .csv file waiting in dir and returns one
// line per file. Files are left in place.
func ProcessPreview(ctx context.Context, p Previewer, dir string) ([]string, error) {
	names, err := csvFiles(dir)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return lines, err
		}
		result, err := p.PreviewImport(ctx, f)
		f.Close()
		if err != nil {
			return lines, fmt.Errorf("%s: %w", name, err)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, result))
	}
	return lines, nil
}

/* ----------------------------------------
	Export: one timestamped file
---------------------------------------- */

// ProcessExport writes the table to dir/<table>_<timestamp>.csv and
// returns the file path. The file only appears once it is complete.
func ProcessExport(ctx context.Context, exp Exporter, dir, table string, now time.Time) (string, int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+table+"-*.csv.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := exp.Export(ctx, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", n, err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", table, now.Format("20060102_150405")))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", n, fmt.Errorf("finish export file: %w", err)
	}
	return path, n, nil
}

// tableDir returns the transfer directory of the current table.
func (h *GridHandler) tableDir() string {
	return filepath.Join(h.Root, h.Ctrl.Table().Info.Key)
}

// Import imports every CSV file waiting in the table's transfer directory.
func (h *GridHandler) Import() tea.Cmd {
	return run(TransferTimeout, func(ctx context.Context) (string, error) {
		summary, err := ProcessImport(ctx, h.Ctrl, h.tableDir())
		if err != nil {
			return "", err
		}
		return summary.String(), nil
	})
}

// Preview reports what importing the waiting CSV files would do.
func (h *GridHandler) Preview() tea.Cmd {
	return run(TransferTimeout, func(ctx context.Context) (string, error) {
		lines, err := ProcessPreview(ctx, h.Ctrl, h.tableDir())
		if err != nil {
			return "", err
		}
		if len(lines) == 0 {
			return "No CSV files to import", nil
		}
		return strings.Join(lines, "; "), nil
	})
}

// Export writes the rows matching the current view to the table's
// transfer directory.
func (h *GridHandler) Export() tea.Cmd {
	return run(TransferTimeout, func(ctx context.Context) (string, error) {
		key := h.Ctrl.Table().Info.Key
		path, n, err := ProcessExport(ctx, h.Ctrl, h.tableDir(), key, time.Now())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Exported %d row(s) to %s", n, path), nil
	})
}
