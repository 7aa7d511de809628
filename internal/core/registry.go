package core

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if the definition is invalid or the key is already registered.
func Register(def TableDefinition) {
	if err := TryRegister(def); err != nil {
		panic(err.Error())
	}
}

// TryRegister adds a table definition to the registry, returning an error
// instead of panicking. Used for definitions loaded from files.
func TryRegister(def TableDefinition) error {
	if err := ValidateDefinition(def); err != nil {
		return err
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		return fmt.Errorf("table already registered: %s", def.Info.Key)
	}

	if def.Info.Label == "" {
		def.Info.Label = def.Info.Key
	}
	if def.Info.Title == "" {
		def.Info.Title = def.Info.Label
	}
	if def.Select.Mode == "" {
		def.Select.Mode = SelectMulti
	}

	registry[def.Info.Key] = def
	return nil
}

// Get returns a table definition by key.
// Returns false if not found.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup returns a table definition by key or an ErrUnknownTable error.
func Lookup(key string) (TableDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return TableDefinition{}, fmt.Errorf("%w: %s", ErrUnknownTable, key)
	}
	return def, nil
}

// All returns every registered definition, ordered by group then key.
func All() []TableDefinition {
	return collect(func(TableDefinition) bool { return true })
}

// ByGroup returns the definitions in one menu group, ordered by key.
func ByGroup(group string) []TableDefinition {
	return collect(func(def TableDefinition) bool { return def.Info.Group == group })
}

// Groups returns the distinct group names in alphabetical order.
func Groups() []string {
	var groups []string
	for _, def := range All() {
		if n := len(groups); n == 0 || groups[n-1] != def.Info.Group {
			groups = append(groups, def.Info.Group)
		}
	}
	return groups
}

func collect(keep func(TableDefinition) bool) []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		if keep(def) {
			result = append(result, def)
		}
	}
	slices.SortFunc(result, func(a, b TableDefinition) int {
		return cmp.Or(
			cmp.Compare(a.Info.Group, b.Info.Group),
			cmp.Compare(a.Info.Key, b.Info.Key),
		)
	})
	return result
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables. Tests use it to start clean.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}
