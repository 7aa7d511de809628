package tables

import "github.com/JonMunkholm/datagrid/internal/core"

func registerProducts() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "products",
			Group: "Catalog",
			Label: "Products",
			Title: "Products",
		},
		Columns: []core.Column{
			{Key: "id", Header: "ID", Type: core.ColumnNumber, Sortable: true},
			{Key: "product_name", Header: "Name", Type: core.ColumnText, Editable: true, Sortable: true, Validation: "required"},
			{Key: "product_price", Header: "Price", Type: core.ColumnNumber, Editable: true, Sortable: true, Validation: "gte=0"},
			{Key: "product_description", Header: "Description", Type: core.ColumnTextarea, Editable: true},
			{Key: "stock", Header: "Stock", Type: core.ColumnNumber, Editable: true, Sortable: true, Validation: "gte=0"},
			{Key: "created_at", Header: "Created", Type: core.ColumnDate, Sortable: true, Hidden: true},
		},
		Search:       core.SearchConfig{Enabled: true, Columns: []string{"product_name"}},
		Filter:       core.Toggle{Enabled: true},
		Pagination:   core.PaginationConfig{PageSize: 20},
		Select:       core.SelectConfig{Enabled: true, Mode: core.SelectMulti},
		BulkEdit:     core.Toggle{Enabled: true},
		Add:          core.Toggle{Enabled: true},
		Delete:       core.Toggle{Enabled: true},
		Export:       core.Toggle{Enabled: true},
		Import:       core.Toggle{Enabled: true},
		ColumnToggle: core.Toggle{Enabled: true},
	})
}

func registerInvoices() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "invoices",
			Group: "Catalog",
			Label: "Invoices",
			Title: "Invoices",
		},
		Columns: []core.Column{
			{Key: "id", Header: "ID", Type: core.ColumnNumber, Sortable: true},
			{Key: "product", Header: "Product", Type: core.ColumnSelect, Editable: true, Sortable: true},
			{Key: "customer", Header: "Customer", Type: core.ColumnText},
			{Key: "items", Header: "Items", Type: core.ColumnText},
			{Key: "total", Header: "Total", Type: core.ColumnNumber, Editable: true, Sortable: true, Validation: "gte=0"},
			{Key: "status", Header: "Status", Type: core.ColumnSelect, Editable: true, Sortable: true, Options: []core.Option{
				{Value: "draft", Label: "Draft"},
				{Value: "sent", Label: "Sent"},
				{Value: "paid", Label: "Paid"},
				{Value: "overdue", Label: "Overdue"},
			}},
			{Key: "due_date", Header: "Due", Type: core.ColumnDate, Editable: true, Sortable: true},
			{Key: "created_at", Header: "Created", Type: core.ColumnDate, Sortable: true},
		},
		Search:       core.SearchConfig{Enabled: true, Columns: []string{"status"}},
		Filter:       core.Toggle{Enabled: true},
		Pagination:   core.PaginationConfig{PageSize: 10},
		Select:       core.SelectConfig{Enabled: true, Mode: core.SelectSingle},
		Delete:       core.Toggle{Enabled: true},
		Export:       core.Toggle{Enabled: true},
		ColumnToggle: core.Toggle{Enabled: true},
		Populate: []core.PopulateConfig{
			{Field: "product", Source: "product_name"},
		},
	})
}
