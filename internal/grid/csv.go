package grid

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

const (
	// ExportPageSize is the page size used while paging through an export.
	ExportPageSize = 500

	// DefaultImportBatchSize is the number of rows sent per bulk upsert.
	DefaultImportBatchSize = 200
)

// Export writes every row matching q as CSV: a header of column keys, then
// raw stored values. Pagination fields of q are ignored. Returns the
// number of rows written.
func Export(ctx context.Context, b backend.Backend, def core.TableDefinition, q backend.Query, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)

	header := make([]string, len(def.Columns))
	for i, col := range def.Columns {
		header[i] = col.Key
	}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	q.PageSize = ExportPageSize
	written := 0
	for page := 1; ; page++ {
		q.Page = page
		result, err := b.Query(ctx, def.Info.Key, q)
		if err != nil {
			return written, &FetchError{Endpoint: def.Info.Key, Err: err}
		}

		for _, row := range result.Items {
			record := make([]string, len(def.Columns))
			for i, col := range def.Columns {
				record[i] = exportValue(core.GetPath(row, col.Key))
			}
			if err := cw.Write(record); err != nil {
				return written, fmt.Errorf("write row: %w", err)
			}
			written++
		}

		if len(result.Items) == 0 || page >= result.Pagination.TotalPages {
			break
		}
	}

	cw.Flush()
	return written, cw.Error()
}

func exportValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any, core.Row, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
	return fmt.Sprint(v)
}

// FailedRow is an import line that could not be parsed.
type FailedRow struct {
	LineNumber int    `json:"line"`
	Reason     string `json:"reason"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	TotalRows  int         `json:"totalRows"`
	Inserted   int         `json:"inserted"`
	Skipped    int         `json:"skipped"`
	FailedRows []FailedRow `json:"failedRows,omitempty"`
}

var (
	// ErrNoHeader is returned when an import file has no recognizable columns.
	ErrNoHeader = errors.New("header row matches no table columns")

	// ErrEmptyFile is returned when an import file has no header row.
	ErrEmptyFile = errors.New("empty file")
)

// Import reads CSV from r and upserts its rows into def's table in batches.
// Headers match column keys or headers case-insensitively; unknown headers
// are ignored. An "id" column updates existing rows. Lines that fail to
// parse are skipped and reported. A UTF-8 or UTF-16 byte order mark is
// honoured and invalid UTF-8 is replaced.
func Import(ctx context.Context, b backend.Backend, def core.TableDefinition, r io.Reader, batchSize int) (*ImportResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}

	rows, err := newRowReader(def, r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	batch := make([]core.Row, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		saved, err := b.BulkUpsert(ctx, def.Info.Key, batch)
		if err != nil {
			return err
		}
		result.Inserted += len(saved)
		batch = batch[:0]
		return nil
	}

	for {
		rec, err := rows.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, err
		}
		if !rec.Malformed {
			result.TotalRows++
		}
		if rec.Err != nil {
			result.FailedRows = append(result.FailedRows, FailedRow{LineNumber: rec.Line, Reason: rec.Err.Error()})
			continue
		}

		batch = append(batch, rec.Row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return result, fmt.Errorf("import through line %d: %w", rec.Line, err)
			}
		}
	}

	if err := flush(); err != nil {
		return result, fmt.Errorf("import through line %d: %w", rows.line, err)
	}
	result.Skipped = len(result.FailedRows)
	return result, nil
}

// boundColumn is a table column found in the import header.
type boundColumn struct {
	col core.Column
	pos int
}

// record is one parsed line of an import file.
type record struct {
	Line      int
	Row       core.Row
	Raw       map[string]string // Cleaned cell text by column key
	Err       error             // Parse or validation failure
	Malformed bool              // CSV syntax error; Row and Raw are empty
}

// rowReader turns CSV lines into rows of a table.
type rowReader struct {
	cr    *csv.Reader
	rules *core.RuleValidator
	bound []boundColumn
	idPos int
	hasID bool
	line  int
}

func newRowReader(def core.TableDefinition, r io.Reader) (*rowReader, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := core.MakeHeaderIndex(header)
	var bound []boundColumn
	for _, col := range def.Columns {
		if col.Key == "id" {
			continue
		}
		pos, ok := idx[strings.ToLower(col.Key)]
		if !ok {
			pos, ok = idx[strings.ToLower(col.Header)]
		}
		if ok {
			bound = append(bound, boundColumn{col: col, pos: pos})
		}
	}
	idPos, hasID := idx["id"]
	if len(bound) == 0 && !hasID {
		return nil, ErrNoHeader
	}

	return &rowReader{cr: cr, rules: core.Rules(), bound: bound, idPos: idPos, hasID: hasID, line: 1}, nil
}

// next returns the next non-blank line. Read failures other than CSV
// syntax errors are returned as err; io.EOF ends the file.
func (rr *rowReader) next() (record, error) {
	for {
		fields, err := rr.cr.Read()
		if errors.Is(err, io.EOF) {
			return record{}, io.EOF
		}
		rr.line++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return record{}, fmt.Errorf("read line %d: %w", rr.line, err)
			}
			return record{Line: rr.line, Err: err, Malformed: true}, nil
		}
		if isEmptyRecord(fields) {
			continue
		}
		return rr.parse(fields), nil
	}
}

func (rr *rowReader) parse(fields []string) record {
	rec := record{Line: rr.line, Row: core.Row{}, Raw: make(map[string]string, len(rr.bound)+1)}
	if rr.hasID && rr.idPos < len(fields) {
		if id := core.CleanCell(fields[rr.idPos]); id != "" {
			rec.Row["id"] = id
			rec.Raw["id"] = id
		}
	}

	for _, bc := range rr.bound {
		raw := ""
		if bc.pos < len(fields) {
			raw = core.CleanCell(fields[bc.pos])
		}
		rec.Raw[bc.col.Key] = raw
		if rec.Err != nil {
			continue
		}

		v, err := core.ParseCell(bc.col, raw)
		if err == nil {
			err = rr.rules.Check(bc.col, v)
		}
		if err != nil {
			rec.Err = err
			continue
		}
		if v != nil {
			core.SetPath(rec.Row, bc.col.Key, v)
		}
	}
	if rec.Err != nil {
		rec.Row = nil
	}
	return rec
}

// WriteTemplate writes the header row an import file for def should have.
func WriteTemplate(def core.TableDefinition, w io.Writer) error {
	var header []string
	for _, col := range def.Columns {
		if col.Key != "id" {
			header = append(header, col.Key)
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
