package grid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

// DefaultPreviewSamples is the number of examples kept per preview section.
const DefaultPreviewSamples = 5

// PreviewSummary counts what an import would do.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	NewRows         int `json:"newRows"`
	UpdateRows      int `json:"updateRows"`
	ErrorRows       int `json:"errorRows"`
	DuplicateInFile int `json:"duplicateInFile"`
}

// RowPreview is a line that would be inserted.
type RowPreview struct {
	LineNumber int               `json:"lineNumber"`
	Values     map[string]string `json:"values"`
}

// UpdateDiff compares a line that carries an id with the stored row.
type UpdateDiff struct {
	LineNumber int               `json:"lineNumber"`
	RowKey     string            `json:"rowKey"`
	Current    map[string]string `json:"current"`
	Incoming   map[string]string `json:"incoming"`
	Changed    []string          `json:"changed"`
}

// ErrorPreview is a line that would be skipped.
type ErrorPreview struct {
	LineNumber int               `json:"lineNumber"`
	Values     map[string]string `json:"values,omitempty"`
	Errors     []string          `json:"errors"`
}

// DuplicatePreview is an id that appears on more than one line.
type DuplicatePreview struct {
	RowKey      string `json:"rowKey"`
	LineNumbers []int  `json:"lineNumbers"`
}

// PreviewResult describes an import without performing it.
type PreviewResult struct {
	Summary          PreviewSummary     `json:"summary"`
	NewRowSamples    []RowPreview       `json:"newRowSamples"`
	UpdateDiffs      []UpdateDiff       `json:"updateDiffs"`
	ErrorSamples     []ErrorPreview     `json:"errorSamples"`
	DuplicateSamples []DuplicatePreview `json:"duplicateSamples"`
	ProcessingTimeMs int64              `json:"processingTimeMs"`
}

func (p *PreviewResult) String() string {
	s := p.Summary
	return fmt.Sprintf("%d row(s): %d new, %d update(s), %d error(s), %d duplicate id(s)",
		s.TotalRows, s.NewRows, s.UpdateRows, s.ErrorRows, s.DuplicateInFile)
}

// Preview parses an import file the way Import does and reports what it
// would insert, update and skip. Lines with an id are updates; the first
// samples of them are compared with the stored rows. Nothing is written.
func Preview(ctx context.Context, b backend.Backend, def core.TableDefinition, r io.Reader, samples int) (*PreviewResult, error) {
	start := time.Now()
	if samples <= 0 {
		samples = DefaultPreviewSamples
	}

	rows, err := newRowReader(def, r)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{
		NewRowSamples:    []RowPreview{},
		UpdateDiffs:      []UpdateDiff{},
		ErrorSamples:     []ErrorPreview{},
		DuplicateSamples: []DuplicatePreview{},
	}
	seen := make(map[string][]int)
	var idOrder []string
	var updates []record

	for {
		rec, err := rows.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !rec.Malformed {
			result.Summary.TotalRows++
		}

		if rec.Err != nil {
			result.Summary.ErrorRows++
			if len(result.ErrorSamples) < samples {
				result.ErrorSamples = append(result.ErrorSamples, ErrorPreview{
					LineNumber: rec.Line,
					Values:     rec.Raw,
					Errors:     []string{rec.Err.Error()},
				})
			}
			continue
		}

		id, ok := rec.Raw["id"]
		if !ok {
			result.Summary.NewRows++
			if len(result.NewRowSamples) < samples {
				result.NewRowSamples = append(result.NewRowSamples, RowPreview{LineNumber: rec.Line, Values: rec.Raw})
			}
			continue
		}

		result.Summary.UpdateRows++
		if _, dup := seen[id]; !dup {
			idOrder = append(idOrder, id)
		}
		seen[id] = append(seen[id], rec.Line)
		if len(updates) < samples {
			updates = append(updates, rec)
		}
	}

	for _, id := range idOrder {
		lines := seen[id]
		if len(lines) < 2 {
			continue
		}
		result.Summary.DuplicateInFile++
		if len(result.DuplicateSamples) < samples {
			result.DuplicateSamples = append(result.DuplicateSamples, DuplicatePreview{RowKey: id, LineNumbers: lines})
		}
	}

	for _, rec := range updates {
		diff, err := diffStored(ctx, b, def, rec)
		if err != nil {
			return nil, &FetchError{Endpoint: def.Info.Key, Err: err}
		}
		result.UpdateDiffs = append(result.UpdateDiffs, diff)
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

// diffStored loads the row rec would update and lists the changed columns.
// A missing row has no current values, so every incoming column changes.
func diffStored(ctx context.Context, b backend.Backend, def core.TableDefinition, rec record) (UpdateDiff, error) {
	id := rec.Raw["id"]
	page, err := b.Query(ctx, def.Info.Key, backend.Query{
		Page:     1,
		PageSize: 1,
		Filters:  map[string]any{"id": id},
	})
	if err != nil {
		return UpdateDiff{}, err
	}

	diff := UpdateDiff{
		LineNumber: rec.Line,
		RowKey:     id,
		Current:    map[string]string{},
		Incoming:   map[string]string{},
		Changed:    []string{},
	}
	var stored core.Row
	if len(page.Items) > 0 {
		stored = page.Items[0]
	}

	for key := range rec.Raw {
		if key == "id" {
			continue
		}
		incoming := exportValue(core.GetPath(rec.Row, key))
		diff.Incoming[key] = incoming
		current := ""
		if stored != nil {
			current = exportValue(core.GetPath(stored, key))
			diff.Current[key] = current
		}
		if current != incoming {
			diff.Changed = append(diff.Changed, key)
		}
	}
	slices.Sort(diff.Changed)
	return diff, nil
}
