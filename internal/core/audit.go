package core

import "time"

// AuditAction represents the type of mutation being audited.
type AuditAction string

const (
	ActionInsert      AuditAction = "insert"
	ActionUpdate      AuditAction = "update"
	ActionDelete      AuditAction = "delete"
	ActionBulkUpsert  AuditAction = "bulk_upsert"
	ActionBulkDelete  AuditAction = "bulk_delete"
	ActionMatchUpdate AuditAction = "match_update"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry is a single audit log entry.
type AuditEntry struct {
	ID           string         `json:"id"`
	Action       AuditAction    `json:"action"`
	Severity     AuditSeverity  `json:"severity"`
	TableKey     string         `json:"tableKey"`
	UserID       string         `json:"userId,omitempty"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	RowKey       string         `json:"rowKey,omitempty"`
	RowData      map[string]any `json:"rowData,omitempty"`
	RowsAffected int            `json:"rowsAffected,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// SeverityFor returns the severity recorded for an action. Changes that
// touch many rows or remove data rank above single-row edits.
func SeverityFor(action AuditAction) AuditSeverity {
	switch action {
	case ActionBulkDelete:
		return SeverityCritical
	case ActionDelete, ActionBulkUpsert, ActionMatchUpdate:
		return SeverityHigh
	case ActionInsert:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
