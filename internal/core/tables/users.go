package tables

import "github.com/JonMunkholm/datagrid/internal/core"

func registerUsers() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:         "users",
			Group:       "People",
			Label:       "Users",
			Title:       "User Management",
			Description: "Accounts with access to the workspace",
		},
		Columns: []core.Column{
			{Key: "id", Header: "ID", Type: core.ColumnNumber, Sortable: true},
			{Key: "name", Header: "Name", Type: core.ColumnText, Editable: true, Sortable: true, Validation: "required,max=120"},
			{Key: "email", Header: "Email", Type: core.ColumnEmail, Editable: true, Sortable: true, Validation: "required", Normalize: NormalizeEmail},
			{Key: "status", Header: "Status", Type: core.ColumnSelect, Editable: true, Sortable: true, Options: statusOptions},
			{Key: "state", Header: "State", Type: core.ColumnSelect, Editable: true, Sortable: true, Options: stateOptions(), Normalize: NormalizeUsState},
			{Key: "address.city", Header: "City", Type: core.ColumnText, Editable: true},
			{Key: "created_at", Header: "Created", Type: core.ColumnDate, Sortable: true},
			{Key: "updated_at", Header: "Updated", Type: core.ColumnDate, Sortable: true, Hidden: true},
		},
		Search:       core.SearchConfig{Enabled: true, Columns: []string{"name", "email"}},
		Filter:       core.Toggle{Enabled: true},
		Pagination:   core.PaginationConfig{PageSize: 10},
		Select:       core.SelectConfig{Enabled: true, Mode: core.SelectMulti},
		BulkEdit:     core.Toggle{Enabled: true},
		Add:          core.Toggle{Enabled: true},
		Delete:       core.Toggle{Enabled: true},
		Export:       core.Toggle{Enabled: true},
		Import:       core.Toggle{Enabled: true},
		ColumnToggle: core.Toggle{Enabled: true},
	})
}
