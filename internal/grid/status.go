package grid

import "strings"

// Style classes for status values. The HTML page uses them as CSS classes
// and the terminal client maps them to colours.
const (
	StyleSuccess = "status-success"
	StyleWarning = "status-warning"
	StyleDanger  = "status-danger"
	StyleInfo    = "status-info"
	StyleMuted   = "status-muted"
)

var statusStyles = map[string]string{
	"active":      StyleSuccess,
	"done":        StyleSuccess,
	"paid":        StyleSuccess,
	"completed":   StyleSuccess,
	"pending":     StyleWarning,
	"review":      StyleWarning,
	"draft":       StyleWarning,
	"in_progress": StyleInfo,
	"sent":        StyleInfo,
	"todo":        StyleInfo,
	"inactive":    StyleMuted,
	"archived":    StyleMuted,
	"suspended":   StyleDanger,
	"overdue":     StyleDanger,
	"failed":      StyleDanger,
}

// StatusStyle returns the style class for a status value, or "" when the
// value has no style.
func StatusStyle(value string) string {
	return statusStyles[strings.ToLower(strings.TrimSpace(value))]
}

// IsStatusColumn reports whether a column key holds a status value.
func IsStatusColumn(key string) bool {
	k := strings.ToLower(key)
	return k == "status" || k == "state" || strings.HasSuffix(k, "_status")
}
