// Package core provides the table model shared by the data grid engine,
// the backends and the front ends.
//
// This package has no UI or transport dependencies. It defines what a table
// is; the grid package decides how a table behaves on screen and the backend
// packages decide where its rows live.
//
// # Architecture
//
//   - Table Definitions: columns, feature toggles, kanban and populate
//     settings, registered via the registry.
//   - Rows: open records ([Row]) with dot-path accessors shared by the read
//     and write paths ([GetPath], [SetPath]).
//   - Conversion and validation: parsing user input into typed values
//     ([ParseCell]) and checking column rules ([RuleValidator]).
//   - Error mapping: technical errors to coded user messages ([MapError]).
//   - Audit: entry types, history filters and the retention scheduler
//     ([AuditEntry], [StartRetentionScheduler]).
//
// # Table Registry
//
// Built-in tables are registered at init time using [Register]; more can be
// loaded from YAML or TOML files with [LoadTablesDir]:
//
//	core.Register(core.TableDefinition{
//	    Info: core.TableInfo{Key: "products", Group: "Catalog", Label: "Products"},
//	    Columns: []core.Column{
//	        {Key: "product_name", Header: "Name", Type: core.ColumnText, Editable: true},
//	        {Key: "product_price", Header: "Price", Type: core.ColumnNumber, Editable: true},
//	    },
//	})
//
// # Error Handling
//
// Sentinel errors ([ErrNotFound], [ErrMissingID], [ErrUnknownTable]) are
// wrapped with context by callers; [MapError] turns any of them into a
// coded message for display.
package core
