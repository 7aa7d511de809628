package core

// ColumnType tags how a column's values are parsed, validated and displayed.
type ColumnType string

const (
	ColumnText     ColumnType = "text"
	ColumnNumber   ColumnType = "number"
	ColumnDate     ColumnType = "date"
	ColumnSelect   ColumnType = "select"
	ColumnEmail    ColumnType = "email"
	ColumnBoolean  ColumnType = "boolean"
	ColumnTextarea ColumnType = "textarea"
)

// Option is a single choice for a select column.
type Option struct {
	Value string `json:"value" yaml:"value" toml:"value"`
	Label string `json:"label" yaml:"label" toml:"label"`
}

// Column describes one column of a table. Column definitions are immutable
// once registered; options fetched from the server live in a separate cache.
type Column struct {
	Key        string     `json:"accessorKey" yaml:"key" toml:"key"` // Dot-path into the row: "address.city"
	Header     string     `json:"header" yaml:"header" toml:"header"`
	Type       ColumnType `json:"type" yaml:"type" toml:"type"`
	Editable   bool       `json:"editable" yaml:"editable" toml:"editable"`
	Sortable   bool       `json:"sortable" yaml:"sortable" toml:"sortable"`
	Hidden     bool       `json:"hidden,omitempty" yaml:"hidden" toml:"hidden"` // Not visible until toggled on
	Options    []Option   `json:"options,omitempty" yaml:"options" toml:"options"`
	Validation string     `json:"validation,omitempty" yaml:"validation" toml:"validation"` // validator tag, e.g. "required,email"

	// Normalize is applied to raw input before validation (edits and imports).
	Normalize func(string) string `json:"-" yaml:"-" toml:"-"`
}

// IsDate reports whether values of this column are treated as dates:
// an explicit date type, or a key that names a date or timestamp.
func (c Column) IsDate() bool {
	if c.Type == ColumnDate {
		return true
	}
	return IsDateKey(c.Key)
}

// OptionLabel returns the label for value, or value itself when no option matches.
func (c Column) OptionLabel(value string) string {
	for _, opt := range c.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// TableInfo contains display information about a table.
type TableInfo struct {
	Key         string `json:"key" yaml:"key" toml:"key"` // Backend endpoint: "users"
	Group       string `json:"group" yaml:"group" toml:"group"`
	Label       string `json:"label" yaml:"label" toml:"label"`
	Title       string `json:"title" yaml:"title" toml:"title"`
	Description string `json:"description,omitempty" yaml:"description" toml:"description"`
}

// Toggle switches an optional table feature on or off.
type Toggle struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// SearchConfig controls the free-text search box. Only the first searchable
// column is queried.
type SearchConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Columns []string `json:"searchableColumns,omitempty" yaml:"columns" toml:"columns"`
}

// PaginationConfig sets the initial page size.
type PaginationConfig struct {
	PageSize int `json:"pageSize" yaml:"page_size" toml:"page_size"`
}

// SelectMode is either single or multi row selection.
type SelectMode string

const (
	SelectSingle SelectMode = "single"
	SelectMulti  SelectMode = "multi"
)

// SelectConfig controls row selection.
type SelectConfig struct {
	Enabled bool       `json:"enabled" yaml:"enabled" toml:"enabled"`
	Mode    SelectMode `json:"mode" yaml:"mode" toml:"mode"`
}

// KanbanConfig maps a table onto a board.
type KanbanConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Identification string   `json:"identification" yaml:"identification" toml:"identification"` // Card key field
	ColumnContent  string   `json:"columnContent" yaml:"column_content" toml:"column_content"`  // Field holding the board column
	ColumnIDName   string   `json:"columnIdName" yaml:"column_id_name" toml:"column_id_name"`   // Field shown on the card
	Columns        []string `json:"columnOptions" yaml:"columns" toml:"columns"`
}

// PopulateConfig fills a select column's options from the table referenced
// by a foreign key field.
type PopulateConfig struct {
	Column string `json:"column" yaml:"column" toml:"column"` // Column receiving the options (defaults to Field)
	Field  string `json:"field" yaml:"field" toml:"field"`    // Foreign key field on this table
	Source string `json:"source" yaml:"source" toml:"source"` // Display column on the referenced table
}

// TargetColumn returns the column key that receives the populated options.
func (p PopulateConfig) TargetColumn() string {
	if p.Column != "" {
		return p.Column
	}
	return p.Field
}

// TableDefinition contains everything needed to render and edit a table.
type TableDefinition struct {
	Info         TableInfo        `json:"info" yaml:"info" toml:"info"`
	Columns      []Column         `json:"columns" yaml:"columns" toml:"columns"`
	Search       SearchConfig     `json:"search" yaml:"search" toml:"search"`
	Filter       Toggle           `json:"filter" yaml:"filter" toml:"filter"`
	Pagination   PaginationConfig `json:"pagination" yaml:"pagination" toml:"pagination"`
	Select       SelectConfig     `json:"select" yaml:"select" toml:"select"`
	BulkEdit     Toggle           `json:"bulkEdit" yaml:"bulk_edit" toml:"bulk_edit"`
	Add          Toggle           `json:"add" yaml:"add" toml:"add"`
	Delete       Toggle           `json:"delete" yaml:"delete" toml:"delete"`
	Export       Toggle           `json:"export" yaml:"export" toml:"export"`
	Import       Toggle           `json:"import" yaml:"import" toml:"import"`
	ColumnToggle Toggle           `json:"columnToggle" yaml:"column_toggle" toml:"column_toggle"`
	Kanban       KanbanConfig     `json:"kanban" yaml:"kanban" toml:"kanban"`
	Populate     []PopulateConfig `json:"populate,omitempty" yaml:"populate" toml:"populate"`
}

// Column returns the column with the given key.
func (t TableDefinition) Column(key string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column{}, false
}

// SearchColumn returns the column queried by free-text search.
func (t TableDefinition) SearchColumn() string {
	if len(t.Search.Columns) > 0 && t.Search.Columns[0] != "" {
		return t.Search.Columns[0]
	}
	return "name"
}

// PageSize returns the configured page size or DefaultPageSize.
func (t TableDefinition) PageSize() int {
	if t.Pagination.PageSize > 0 {
		return t.Pagination.PageSize
	}
	return DefaultPageSize
}

// DefaultVisible returns the keys of columns shown before any toggling.
func (t TableDefinition) DefaultVisible() []string {
	keys := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		if !col.Hidden {
			keys = append(keys, col.Key)
		}
	}
	return keys
}

// DefaultPageSize is used when a table does not configure one.
const DefaultPageSize = 10

// SavedFilter is a named filter set stored per table and user.
type SavedFilter struct {
	ID        string         `json:"id"`
	TableName string         `json:"table_name"`
	CreatedBy string         `json:"created_by"`
	Name      string         `json:"name"`
	Filters   map[string]any `json:"filters"`
	CreatedAt string         `json:"created_at,omitempty"`
}
