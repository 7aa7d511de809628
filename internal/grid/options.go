package grid

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

// OptionsCache holds select options fetched from related tables, keyed by
// column. Column definitions stay untouched; lookups fall back to their
// static options.
type OptionsCache struct {
	mu      sync.RWMutex
	options map[string][]core.Option
}

// NewOptionsCache creates an empty cache.
func NewOptionsCache() *OptionsCache {
	return &OptionsCache{options: make(map[string][]core.Option)}
}

// Set stores the options for a column.
func (c *OptionsCache) Set(column string, opts []core.Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.options[column] = opts
}

// Options returns the fetched options for col, or its static options.
func (c *OptionsCache) Options(col core.Column) []core.Option {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if opts, ok := c.options[col.Key]; ok {
		return opts
	}
	return col.Options
}

// Label returns the display label for a value of col.
func (c *OptionsCache) Label(col core.Column, value string) string {
	for _, opt := range c.Options(col) {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// Load fetches options for every populate entry of def.
func (c *OptionsCache) Load(ctx context.Context, b backend.Backend, def core.TableDefinition) error {
	for _, p := range def.Populate {
		opts, err := b.Populate(ctx, def.Info.Key, p.Field, p.Source)
		if err != nil {
			return fmt.Errorf("populate %s: %w", p.TargetColumn(), err)
		}
		c.Set(p.TargetColumn(), opts)
	}
	return nil
}
