package tables

import "github.com/JonMunkholm/datagrid/internal/core"

var taskStatuses = []string{"todo", "in_progress", "review", "done"}

func registerTasks() {
	options := make([]core.Option, len(taskStatuses))
	for i, s := range taskStatuses {
		options[i] = core.Option{Value: s, Label: s}
	}

	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "tasks",
			Group: "Work",
			Label: "Tasks",
			Title: "Task Board",
		},
		Columns: []core.Column{
			{Key: "id", Header: "ID", Type: core.ColumnNumber, Sortable: true},
			{Key: "title", Header: "Title", Type: core.ColumnText, Editable: true, Sortable: true, Validation: "required,max=200"},
			{Key: "status", Header: "Status", Type: core.ColumnSelect, Editable: true, Sortable: true, Options: options},
			{Key: "assignee", Header: "Assignee", Type: core.ColumnText, Editable: true, Sortable: true},
			{Key: "due_date", Header: "Due", Type: core.ColumnDate, Editable: true, Sortable: true},
			{Key: "description", Header: "Description", Type: core.ColumnTextarea, Editable: true, Hidden: true},
		},
		Search:       core.SearchConfig{Enabled: true, Columns: []string{"title"}},
		Filter:       core.Toggle{Enabled: true},
		Pagination:   core.PaginationConfig{PageSize: 25},
		Select:       core.SelectConfig{Enabled: true, Mode: core.SelectMulti},
		BulkEdit:     core.Toggle{Enabled: true},
		Add:          core.Toggle{Enabled: true},
		Delete:       core.Toggle{Enabled: true},
		Export:       core.Toggle{Enabled: true},
		Import:       core.Toggle{Enabled: true},
		ColumnToggle: core.Toggle{Enabled: true},
		Kanban: core.KanbanConfig{
			Enabled:        true,
			Identification: "id",
			ColumnContent:  "status",
			ColumnIDName:   "title",
			Columns:        taskStatuses,
		},
	})
}
