package core

import (
	"fmt"
	"strings"
)

// Row is a single record as returned by the backend. Values may be nested
// maps or slices; accessors take dot-separated paths.
type Row map[string]any

// GetPath returns the value at a dot-separated path such as "address.city".
// Missing segments yield nil.
func GetPath(row Row, path string) any {
	if row == nil || path == "" {
		return nil
	}
	var cur any = map[string]any(row)
	for _, seg := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur = m[seg]
	}
	return cur
}

// SetPath writes value at a dot-separated path, creating intermediate maps
// as needed. A non-map intermediate value is replaced.
func SetPath(row Row, path string, value any) {
	if row == nil || path == "" {
		return
	}
	segs := strings.Split(path, ".")
	cur := map[string]any(row)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(cur[seg])
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Row:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

// Clone returns a deep copy of the row. Nested maps and slices are copied;
// other values are shared.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	return Row(cloneMap(r))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case Row:
		return Row(cloneMap(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// ID returns the row's identifier, taken from "id" or "_id".
func (r Row) ID() (any, bool) {
	for _, key := range []string{"id", "_id"} {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// SameRecord reports whether a and b carry the same identifier.
func SameRecord(a, b Row) bool {
	idA, okA := a.ID()
	idB, okB := b.ID()
	if !okA || !okB {
		return false
	}
	return IDString(idA) == IDString(idB)
}

// IDString renders an identifier for use in URLs and comparisons.
func IDString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
	}
	return fmt.Sprint(id)
}

// IsDateKey reports whether a column key names a date or timestamp field.
func IsDateKey(key string) bool {
	switch key {
	case "created_at", "updated_at", "createdAt", "updatedAt":
		return true
	}
	return strings.Contains(strings.ToLower(key), "date")
}
