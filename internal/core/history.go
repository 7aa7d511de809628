package core

import (
	"strconv"
	"time"
)

const (
	// DefaultHistoryLimit is the page size of a history listing.
	DefaultHistoryLimit = 50

	// MaxHistoryLimit caps a single history listing.
	MaxHistoryLimit = 500
)

// AuditFilter selects audit entries, newest first.
type AuditFilter struct {
	TableKey string
	Action   AuditAction
	Since    time.Time
	Limit    int
	Offset   int
}

// Normalize applies the default limit and clamps out-of-range values.
func (f AuditFilter) Normalize() AuditFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultHistoryLimit
	}
	f.Limit = min(f.Limit, MaxHistoryLimit)
	f.Offset = max(f.Offset, 0)
	return f
}

// ParseAuditFilter reads limit, offset, action and since (RFC 3339) from
// query parameters for table.
func ParseAuditFilter(table string, get func(string) string) (AuditFilter, error) {
	f := AuditFilter{TableKey: table, Action: AuditAction(get("action"))}

	if v := get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, ValidationError{Field: "limit", Value: v, Message: "must be a number"}
		}
		f.Limit = n
	}
	if v := get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, ValidationError{Field: "offset", Value: v, Message: "must be a number"}
		}
		f.Offset = n
	}
	if v := get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, ValidationError{Field: "since", Value: v, Message: "must be an RFC 3339 time"}
		}
		f.Since = t
	}

	switch f.Action {
	case "", ActionInsert, ActionUpdate, ActionDelete, ActionBulkUpsert, ActionBulkDelete, ActionMatchUpdate:
	default:
		return f, ValidationError{Field: "action", Value: string(f.Action), Message: "unknown action"}
	}
	return f.Normalize(), nil
}
