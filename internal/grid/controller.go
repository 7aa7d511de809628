package grid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

// DefaultSearchDebounce is the quiet period before a search reloads.
const DefaultSearchDebounce = 300 * time.Millisecond

// ErrFeatureDisabled is returned for operations the table does not enable.
var ErrFeatureDisabled = errors.New("feature not enabled for this table")

// Config configures a Controller.
type Config struct {
	Backend   backend.Backend // Required
	Table     core.TableDefinition
	Formatter *Formatter
	Rules     *core.RuleValidator
	Notifier  Notifier
	Logger    *slog.Logger
	UserID    string // Owner of saved filters

	SearchDebounce    time.Duration
	RequestTimeout    time.Duration
	CommitConcurrency int
}

// Controller owns the state of one table view: sort, page, filters,
// search, visible columns, pending edits, selection and the loaded rows.
// It is safe for concurrent use. Every reload takes a new generation and
// only the response of the latest generation is applied.
type Controller struct {
	cfg     Config
	def     core.TableDefinition
	backend backend.Backend
	fetcher *Fetcher
	format  *Formatter
	logger  *slog.Logger
	options *OptionsCache

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	req        Request
	rows       []core.Row
	pagination Pagination
	visible    map[string]bool
	edits      *EditBuffer
	selection  *Selection
	loading    bool
	err        error
	generation uint64
	debounce   *time.Timer
	kanban     bool
	board      Board
	closed     bool
	changes    chan struct{}
}

// New creates a Controller. Call Init to load options and the first page.
func New(cfg Config) (*Controller, error) {
	if cfg.Backend == nil {
		return nil, errors.New("grid: backend is required")
	}
	if cfg.Table.Info.Key == "" {
		return nil, errors.New("grid: table key is required")
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = DefaultSearchDebounce
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.CommitConcurrency <= 0 {
		cfg.CommitConcurrency = DefaultCommitConcurrency
	}
	if cfg.Formatter == nil {
		cfg.Formatter = NewFormatter()
	}
	if cfg.Rules == nil {
		cfg.Rules = core.Rules()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	def := cfg.Table
	visible := make(map[string]bool, len(def.Columns))
	for _, key := range def.DefaultVisible() {
		visible[key] = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:       cfg,
		def:       def,
		backend:   cfg.Backend,
		fetcher:   NewFetcher(cfg.Backend, cfg.RequestTimeout),
		format:    cfg.Formatter,
		logger:    cfg.Logger.With("table", def.Info.Key),
		options:   NewOptionsCache(),
		ctx:       ctx,
		cancel:    cancel,
		req:       Request{Endpoint: def.Info.Key, PageSize: def.PageSize(), SearchColumn: def.SearchColumn()},
		visible:   visible,
		edits:     NewEditBuffer(def, cfg.Rules),
		selection: NewSelection(def.Select.Mode),
		changes:   make(chan struct{}, 1),
	}, nil
}

// Table returns the table definition.
func (c *Controller) Table() core.TableDefinition {
	return c.def
}

// Changes delivers a signal whenever the view changes. Closed by Close.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// Close stops pending debounced loads and in-flight requests.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopDebounceLocked()
	c.cancel()
	close(c.changes)
}

// Init fetches populated select options, then the first page. Option
// failures are reported but do not stop the page load.
func (c *Controller) Init(ctx context.Context) error {
	octx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	err := c.options.Load(octx, c.backend, c.def)
	cancel()
	if err != nil {
		c.report(&FetchError{Endpoint: c.def.Info.Key, Err: err})
	}
	return c.Load(ctx)
}

// Load fetches the current page immediately, cancelling a pending search
// debounce.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.stopDebounceLocked()
	req, gen := c.beginLoadLocked()
	c.mu.Unlock()

	return c.fetch(ctx, req, gen)
}

func (c *Controller) beginLoadLocked() (Request, uint64) {
	c.generation++
	c.loading = true
	req := c.req
	req.Filters = slices.Clone(c.req.Filters)
	return req, c.generation
}

// fetch runs one page request and applies it if gen is still current.
func (c *Controller) fetch(ctx context.Context, req Request, gen uint64) error {
	page, err := c.fetcher.Fetch(ctx, req)

	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarded stale response", "generation", gen)
		return nil
	}
	c.loading = false
	c.selection.Clear()
	if err != nil {
		c.rows = nil
		c.err = err
		c.mu.Unlock()
		c.report(err)
		c.signal()
		return err
	}

	c.rows = page.Items
	c.pagination = Pagination{
		PageIndex:  page.Pagination.CurrentPage - 1,
		PageSize:   page.Pagination.PageSize,
		TotalPages: page.Pagination.TotalPages,
		TotalItems: page.Pagination.TotalItems,
	}
	c.req.PageIndex = c.pagination.PageIndex
	c.err = nil
	c.mu.Unlock()

	c.signal()
	return nil
}

// reload is Load on the controller's own context, for state setters.
func (c *Controller) reload() error {
	return c.Load(c.ctx)
}

func (c *Controller) stopDebounceLocked() {
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
}

// SetSearch updates the search term and reloads after the debounce period.
// Each call restarts the timer, so rapid typing yields one request.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.def.Search.Enabled {
		return
	}

	c.req.SearchQuery = term
	c.req.PageIndex = 0
	c.stopDebounceLocked()

	var t *time.Timer
	t = time.AfterFunc(c.cfg.SearchDebounce, func() {
		c.mu.Lock()
		if c.closed || c.debounce != t {
			c.mu.Unlock()
			return
		}
		c.debounce = nil
		req, gen := c.beginLoadLocked()
		c.mu.Unlock()

		c.fetch(c.ctx, req, gen)
	})
	c.debounce = t
}

// ToggleSort cycles the sort of column: asc, desc, none.
func (c *Controller) ToggleSort(column string) error {
	col, ok := c.def.Column(column)
	if !ok || !col.Sortable {
		return fmt.Errorf("%w: %s is not sortable", core.ErrUnknownColumn, column)
	}
	c.mu.Lock()
	c.req.Sort = c.req.Sort.Next(column)
	c.mu.Unlock()
	return c.reload()
}

// SetPage moves to a 0-based page index.
func (c *Controller) SetPage(index int) error {
	if index < 0 {
		index = 0
	}
	c.mu.Lock()
	c.req.PageIndex = index
	c.mu.Unlock()
	return c.reload()
}

// NextPage moves forward one page if there is one.
func (c *Controller) NextPage() error {
	c.mu.Lock()
	if !c.pagination.CanNext() {
		c.mu.Unlock()
		return nil
	}
	c.req.PageIndex = c.pagination.PageIndex + 1
	c.mu.Unlock()
	return c.reload()
}

// PrevPage moves back one page if there is one.
func (c *Controller) PrevPage() error {
	c.mu.Lock()
	if !c.pagination.CanPrev() {
		c.mu.Unlock()
		return nil
	}
	c.req.PageIndex = c.pagination.PageIndex - 1
	c.mu.Unlock()
	return c.reload()
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller) SetPageSize(n int) error {
	if n <= 0 {
		n = c.def.PageSize()
	}
	c.mu.Lock()
	c.req.PageSize = n
	c.req.PageIndex = 0
	c.mu.Unlock()
	return c.reload()
}

// SetFilter sets or, for a blank value, removes the filter on column.
// A two-element value filters an inclusive range.
func (c *Controller) SetFilter(column string, value any) error {
	if _, ok := c.def.Column(column); !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownColumn, column)
	}
	c.mu.Lock()
	c.req.Filters = setFilter(c.req.Filters, column, value)
	c.req.PageIndex = 0
	c.mu.Unlock()
	return c.reload()
}

// ClearFilters removes every filter.
func (c *Controller) ClearFilters() error {
	c.mu.Lock()
	c.req.Filters = nil
	c.req.PageIndex = 0
	c.mu.Unlock()
	return c.reload()
}

func setFilter(filters []Filter, column string, value any) []Filter {
	out := slices.DeleteFunc(slices.Clone(filters), func(f Filter) bool { return f.Column == column })
	if r, ok := backend.AsRange(value); ok {
		if backend.IsBlank(r.Lo) && backend.IsBlank(r.Hi) {
			return out
		}
	} else if backend.IsBlank(value) {
		return out
	}
	return append(out, Filter{Column: column, Value: value})
}

// BeginEdit starts editing a cell and returns its effective value.
// Unsaved edits held for another record at the same position are kept and
// reported.
func (c *Controller) BeginEdit(rowIndex int, column string) (any, error) {
	c.mu.Lock()
	v, err := c.edits.Begin(c.rows, rowIndex, column)
	c.mu.Unlock()

	if errors.Is(err, core.ErrUnsavedEdits) {
		c.report(err)
	}
	return v, err
}

// CommitEdit finishes the edit in progress. Unchanged values leave no
// pending edit. Validation failures are reported and returned.
func (c *Controller) CommitEdit(value any) error {
	c.mu.Lock()
	changed, err := c.edits.Commit(value)
	c.mu.Unlock()

	if err != nil {
		c.report(err)
		return err
	}
	if changed {
		c.signal()
	}
	return nil
}

// CancelEdit abandons the edit in progress.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.edits.Cancel()
	c.mu.Unlock()
}

// DiscardEdits drops every pending edit.
func (c *Controller) DiscardEdits() {
	c.mu.Lock()
	c.edits.Reset()
	c.mu.Unlock()
	c.signal()
}

// CommitAll saves every pending edit, one update per row, concurrently.
// Saved rows are replaced by the server's copy; failed rows keep their
// edits and are listed in the returned *BatchError. With nothing pending
// it does nothing.
func (c *Controller) CommitAll(ctx context.Context) error {
	c.mu.Lock()
	if c.edits.Len() == 0 {
		c.mu.Unlock()
		return nil
	}
	updates := PlanCommit(c.edits)
	c.mu.Unlock()

	results, saved := DispatchCommit(ctx, c.backend, c.def.Info.Key, updates, c.cfg.CommitConcurrency, c.cfg.RequestTimeout)

	c.mu.Lock()
	rows, err := ApplyCommit(c.rows, c.edits, updates, results, saved)
	c.rows = rows
	c.mu.Unlock()

	if err != nil {
		c.report(err)
	} else {
		c.notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Saved %d row(s)", len(updates))})
	}
	c.signal()
	return err
}

// ToggleRow flips the selection of a loaded row.
func (c *Controller) ToggleRow(i int) {
	c.mu.Lock()
	if i >= 0 && i < len(c.rows) && c.def.Select.Enabled {
		c.selection.Toggle(i)
	}
	c.mu.Unlock()
	c.signal()
}

// SelectAll selects or clears every loaded row.
func (c *Controller) SelectAll(on bool) {
	c.mu.Lock()
	if c.def.Select.Enabled {
		c.selection.SelectAll(len(c.rows), on)
	}
	c.mu.Unlock()
	c.signal()
}

// SelectedRows returns the selected rows of the loaded page.
func (c *Controller) SelectedRows() []core.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Rows(c.rows)
}

// AddRow parses values by column, inserts the row and reloads.
func (c *Controller) AddRow(ctx context.Context, values map[string]string) (core.Row, error) {
	if !c.def.Add.Enabled {
		return nil, ErrFeatureDisabled
	}

	row := core.Row{}
	for _, col := range c.def.Columns {
		raw, ok := values[col.Key]
		if !ok || col.Key == "id" {
			continue
		}
		v, err := core.ParseCell(col, raw)
		if err == nil {
			err = c.cfg.Rules.Check(col, v)
		}
		if err != nil {
			c.report(err)
			return nil, err
		}
		if v != nil {
			core.SetPath(row, col.Key, v)
		}
	}

	rctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	created, err := c.backend.Insert(rctx, c.def.Info.Key, row)
	cancel()
	if err != nil {
		c.report(err)
		return nil, err
	}

	c.notify(Notice{Level: LevelSuccess, Message: "Row added"})
	return created, c.Load(ctx)
}

// DeleteSelected deletes the selected rows and reloads.
func (c *Controller) DeleteSelected(ctx context.Context) (int, error) {
	if !c.def.Delete.Enabled {
		return 0, ErrFeatureDisabled
	}

	selected := c.SelectedRows()
	if len(selected) == 0 {
		return 0, nil
	}
	ids := make([]any, 0, len(selected))
	for _, row := range selected {
		id, ok := row.ID()
		if !ok {
			c.report(core.ErrMissingID)
			return 0, core.ErrMissingID
		}
		ids = append(ids, id)
	}

	rctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	n, err := c.backend.BulkDelete(rctx, c.def.Info.Key, ids)
	cancel()
	if err != nil {
		c.report(err)
		return 0, err
	}

	c.mu.Lock()
	c.selection.Clear()
	c.mu.Unlock()
	c.notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Deleted %d row(s)", n)})
	return n, c.Load(ctx)
}

// BulkEdit sets column to the same value on every selected row. The value
// is parsed and validated once.
func (c *Controller) BulkEdit(ctx context.Context, column, raw string) (int, error) {
	if !c.def.BulkEdit.Enabled {
		return 0, ErrFeatureDisabled
	}
	col, ok := c.def.Column(column)
	if !ok || !col.Editable {
		return 0, fmt.Errorf("%w: %s", ErrNotEditable, column)
	}
	v, err := core.ParseCell(col, raw)
	if err == nil {
		err = c.cfg.Rules.Check(col, v)
	}
	if err != nil {
		c.report(err)
		return 0, err
	}

	selected := c.SelectedRows()
	if len(selected) == 0 {
		return 0, nil
	}
	payload := make([]core.Row, len(selected))
	for i, row := range selected {
		if _, ok := row.ID(); !ok {
			c.report(core.ErrMissingID)
			return 0, core.ErrMissingID
		}
		p := row.Clone()
		core.SetPath(p, column, v)
		payload[i] = p
	}

	rctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	saved, err := c.backend.BulkUpsert(rctx, c.def.Info.Key, payload)
	cancel()
	if err != nil {
		c.report(err)
		return 0, err
	}

	c.notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Updated %d row(s)", len(saved))})
	return len(saved), c.Load(ctx)
}

// ToggleColumn shows or hides a column.
func (c *Controller) ToggleColumn(key string) error {
	if !c.def.ColumnToggle.Enabled {
		return ErrFeatureDisabled
	}
	if _, ok := c.def.Column(key); !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownColumn, key)
	}
	c.mu.Lock()
	c.visible[key] = !c.visible[key]
	c.mu.Unlock()
	c.signal()
	return nil
}

// VisibleColumns returns the shown columns in definition order.
func (c *Controller) VisibleColumns() []core.Column {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

func (c *Controller) visibleLocked() []core.Column {
	cols := make([]core.Column, 0, len(c.def.Columns))
	for _, col := range c.def.Columns {
		if c.visible[col.Key] {
			cols = append(cols, col)
		}
	}
	return cols
}

// Options returns the select options of col, fetched ones first.
func (c *Controller) Options(col core.Column) []core.Option {
	return c.options.Options(col)
}

// Cell returns the display string of a loaded cell, pending value first.
func (c *Controller) Cell(rowIndex int, col core.Column) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rowIndex < 0 || rowIndex >= len(c.rows) {
		return Placeholder
	}
	row := c.rows[rowIndex]
	return c.format.Cell(col, row, c.edits.Overlay(rowIndex, row))
}

// IsPending reports whether a cell has an uncommitted edit.
func (c *Controller) IsPending(rowIndex int, column string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rowIndex < 0 || rowIndex >= len(c.rows) {
		return false
	}
	return c.edits.IsPendingOn(rowIndex, c.rows[rowIndex], column)
}

// SaveFilter stores the current filters under name for the configured user.
func (c *Controller) SaveFilter(ctx context.Context, name string) (*core.SavedFilter, error) {
	if !c.def.Filter.Enabled {
		return nil, ErrFeatureDisabled
	}
	c.mu.Lock()
	filters := make(map[string]any, len(c.req.Filters))
	for _, f := range c.req.Filters {
		if r, ok := backend.AsRange(f.Value); ok {
			filters[f.Column] = []any{r.Lo, r.Hi}
			continue
		}
		filters[f.Column] = f.Value
	}
	c.mu.Unlock()

	rctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	saved, err := c.backend.SaveFilter(rctx, core.SavedFilter{
		TableName: c.def.Info.Key,
		CreatedBy: c.cfg.UserID,
		Name:      name,
		Filters:   filters,
	})
	if err != nil {
		c.report(err)
		return nil, err
	}
	c.notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Saved filter %q", name)})
	return saved, nil
}

// SavedFilters lists the user's saved filters for this table.
func (c *Controller) SavedFilters(ctx context.Context) ([]core.SavedFilter, error) {
	rctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	filters, err := c.backend.ListFilters(rctx, c.def.Info.Key, c.cfg.UserID)
	if err != nil {
		c.report(err)
		return nil, err
	}
	return filters, nil
}

// ApplySavedFilter replaces the current filters with f's and reloads.
// Unknown columns are skipped.
func (c *Controller) ApplySavedFilter(ctx context.Context, f core.SavedFilter) error {
	keys := make([]string, 0, len(f.Filters))
	for k := range f.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var filters []Filter
	for _, k := range keys {
		if _, ok := c.def.Column(k); !ok {
			continue
		}
		filters = setFilter(filters, k, f.Filters[k])
	}

	c.mu.Lock()
	c.req.Filters = filters
	c.req.PageIndex = 0
	c.mu.Unlock()
	return c.Load(ctx)
}

// ToggleKanban switches between table and board view, loading the board
// when it is shown.
func (c *Controller) ToggleKanban(ctx context.Context) error {
	if !c.def.Kanban.Enabled {
		return ErrFeatureDisabled
	}
	c.mu.Lock()
	c.kanban = !c.kanban
	show := c.kanban
	c.mu.Unlock()

	if show {
		return c.LoadBoard(ctx)
	}
	c.signal()
	return nil
}

// LoadBoard refreshes the kanban board.
func (c *Controller) LoadBoard(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	board, err := LoadBoard(rctx, c.backend, c.def.Info.Key, c.def.Kanban)
	cancel()
	if err != nil {
		c.report(err)
		return err
	}
	c.mu.Lock()
	c.board = board
	c.mu.Unlock()
	c.signal()
	return nil
}

// MoveCard moves a card to another board column and refreshes the board.
func (c *Controller) MoveCard(ctx context.Context, cardID any, column string) error {
	rctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	err := MoveCard(rctx, c.backend, c.def.Info.Key, c.def.Kanban, cardID, column)
	cancel()
	if err != nil {
		c.report(err)
		return err
	}
	return c.LoadBoard(ctx)
}

// Export writes every row matching the current filters, search and sort
// as CSV.
func (c *Controller) Export(ctx context.Context, w io.Writer) (int, error) {
	if !c.def.Export.Enabled {
		return 0, ErrFeatureDisabled
	}
	c.mu.Lock()
	q := c.req.Query()
	c.mu.Unlock()

	n, err := Export(ctx, c.backend, c.def, q, w)
	if err != nil {
		c.report(err)
	}
	return n, err
}

// Import upserts rows from CSV and reloads.
func (c *Controller) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	if !c.def.Import.Enabled {
		return nil, ErrFeatureDisabled
	}
	result, err := Import(ctx, c.backend, c.def, r, DefaultImportBatchSize)
	if err != nil {
		c.report(err)
		return result, err
	}
	c.notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Imported %d row(s), skipped %d", result.Inserted, result.Skipped)})
	return result, c.Load(ctx)
}

// PreviewImport reports what importing r would do without writing.
func (c *Controller) PreviewImport(ctx context.Context, r io.Reader) (*PreviewResult, error) {
	if !c.def.Import.Enabled {
		return nil, ErrFeatureDisabled
	}
	result, err := Preview(ctx, c.backend, c.def, r, DefaultPreviewSamples)
	if err != nil {
		c.report(err)
	}
	return result, err
}

// View is a point-in-time copy of the controller state for rendering.
type View struct {
	Table         core.TableDefinition
	Rows          []core.Row
	Pagination    Pagination
	Sort          SortState
	Filters       []Filter
	Search        string
	Columns       []core.Column
	Selected      []int
	SelectedCount int
	AllSelected   bool
	SomeSelected  bool
	Pending       int
	Editing       *CellKey
	Loading       bool
	Err           error
	Kanban        bool
	Board         Board
}

// View returns a snapshot of the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.rows)
	v := View{
		Table:         c.def,
		Rows:          slices.Clone(c.rows),
		Pagination:    c.pagination,
		Sort:          c.req.Sort,
		Filters:       slices.Clone(c.req.Filters),
		Search:        c.req.SearchQuery,
		Columns:       c.visibleLocked(),
		Selected:      c.selection.Indices(n),
		SelectedCount: c.selection.Count(n),
		AllSelected:   c.selection.AllSelected(n),
		SomeSelected:  c.selection.SomeSelected(n),
		Pending:       c.edits.Len(),
		Loading:       c.loading,
		Err:           c.err,
		Kanban:        c.kanban,
		Board:         c.board,
	}
	if key, ok := c.edits.Editing(); ok {
		v.Editing = &key
	}
	return v
}

func (c *Controller) signal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func (c *Controller) notify(n Notice) {
	logNotice(c.logger, n)
	if c.cfg.Notifier != nil {
		c.cfg.Notifier.Notify(n)
	}
}

// report logs err and surfaces it to the user.
func (c *Controller) report(err error) {
	c.notify(errorNotice(err))
}
