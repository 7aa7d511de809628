// Package tables registers the built-in table definitions with the core
// registry. Import this package to ensure they are registered.
package tables

import "github.com/JonMunkholm/datagrid/internal/core"

func init() {
	registerUsers()
	registerProducts()
	registerInvoices()
	registerTasks()
}

// statusOptions are shared by tables with a lifecycle status column.
var statusOptions = []core.Option{
	{Value: "active", Label: "Active"},
	{Value: "inactive", Label: "Inactive"},
	{Value: "pending", Label: "Pending"},
	{Value: "suspended", Label: "Suspended"},
}
