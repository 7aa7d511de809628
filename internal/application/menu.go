package application

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/datagrid/internal/config"
	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/handler"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

// buildMenuTree lists tables by group. Choosing a table opens its grid.
func buildMenuTree(cfg config.ClientConfig, tables []core.TableDefinition) *Menu {

	/* Submenus */
	submenuInfo := &Menu{
		Title: "Info",
		Items: []MenuItem{
			{Label: "Show Server", Action: func() tea.Cmd {
				return func() tea.Msg { return handler.WdMsg("Server: " + cfg.APIURL) }
			}},
			{Label: "Show User", Action: func() tea.Cmd {
				return func() tea.Msg { return handler.WdMsg("User: " + cfg.UserID) }
			}},
			{Label: "Back"},
		},
	}

	/* Root Menu */
	root := &Menu{
		Title: "Main Menu",
		Items: []MenuItem{
			{Label: "Tables ->", Submenu: loadTables(tables)},
			{Label: "Info ->", Submenu: submenuInfo},
			{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

// loadTables builds one submenu per table group, in first-seen order.
func loadTables(tables []core.TableDefinition) *Menu {
	if len(tables) == 0 {
		return &Menu{
			Title: "Tables",
			Items: []MenuItem{
				{Label: "No tables available"},
				{Label: "Back"},
			},
		}
	}

	var order []string
	groups := make(map[string][]core.TableDefinition)
	for _, def := range tables {
		g := def.Info.Group
		if g == "" {
			g = "Other"
		}
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], def)
	}

	menu := &Menu{Title: "Tables"}
	for _, g := range order {
		menu.Items = append(menu.Items, MenuItem{
			Label:   fmt.Sprintf("%s ->", g),
			Submenu: loadGroup(g, groups[g]),
		})
	}
	menu.Items = append(menu.Items, MenuItem{Label: "Back"})
	return menu
}

func loadGroup(name string, tables []core.TableDefinition) *Menu {
	menu := &Menu{Title: name}
	for _, def := range tables {
		menu.Items = append(menu.Items, MenuItem{
			Label:  tableLabel(def),
			Action: openTable(def),
		})
	}
	menu.Items = append(menu.Items, MenuItem{Label: "Back"})
	return menu
}

func openTable(def core.TableDefinition) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return openTableMsg{def: def} }
	}
}

func tableLabel(def core.TableDefinition) string {
	switch {
	case def.Info.Title != "":
		return def.Info.Title
	case def.Info.Label != "":
		return def.Info.Label
	}
	return def.Info.Key
}
