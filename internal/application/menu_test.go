package application

import (
	"testing"

	"github.com/JonMunkholm/datagrid/internal/config"
	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/handler"
)

func TestLinkParents(t *testing.T) {
	child := &Menu{Title: "Child", Items: []MenuItem{{Label: "Leaf"}, {Label: "Back"}}}
	root := &Menu{Title: "Root", Items: []MenuItem{{Label: "Child ->", Submenu: child}}}

	linkParents(root, nil)

	if root.Parent != nil {
		t.Errorf("root.Parent = %v, want nil", root.Parent)
	}
	if child.Parent != root {
		t.Errorf("child.Parent = %v, want root", child.Parent)
	}
	if back := child.Items[1]; back.Submenu != root {
		t.Errorf("Back item submenu = %v, want root", back.Submenu)
	}
}

func TestLoadTables(t *testing.T) {
	tables := []core.TableDefinition{
		{Info: core.TableInfo{Key: "users", Group: "People", Title: "Users"}},
		{Info: core.TableInfo{Key: "orders", Group: "Sales", Label: "Orders"}},
		{Info: core.TableInfo{Key: "staff", Group: "People"}},
		{Info: core.TableInfo{Key: "misc"}},
	}

	menu := loadTables(tables)

	var labels []string
	for _, item := range menu.Items {
		labels = append(labels, item.Label)
	}
	want := []string{"People ->", "Sales ->", "Other ->", "Back"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], want[i])
		}
	}

	people := menu.Items[0].Submenu
	if len(people.Items) != 3 || people.Items[0].Label != "Users" || people.Items[1].Label != "staff" {
		t.Errorf("People items = %+v, want Users, staff, Back", people.Items)
	}

	msg := people.Items[0].Action()()
	open, ok := msg.(openTableMsg)
	if !ok || open.def.Info.Key != "users" {
		t.Errorf("action msg = %#v, want openTableMsg for users", msg)
	}
}

func TestLoadTables_Empty(t *testing.T) {
	menu := loadTables(nil)
	if len(menu.Items) != 2 || menu.Items[0].Label != "No tables available" {
		t.Errorf("items = %+v, want placeholder and Back", menu.Items)
	}
}

func TestBuildMenuTree(t *testing.T) {
	root := buildMenuTree(config.ClientConfig{APIURL: "http://grid:8080", UserID: "ada"}, nil)

	if root.Title != "Main Menu" || len(root.Items) != 3 {
		t.Fatalf("root = %+v", root)
	}
	tables := root.Items[0].Submenu
	if tables.Parent != root {
		t.Error("Tables submenu not linked to root")
	}
	if back := tables.Items[len(tables.Items)-1]; back.Submenu != root {
		t.Error("Tables Back item does not return to root")
	}

	info := root.Items[1].Submenu
	if got := info.Items[1].Action()(); got != any(handler.WdMsg("User: ada")) {
		t.Errorf("Show User = %#v", got)
	}
}
