// Package core provides the table model shared by the data grid, the
// backends and the front ends.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this ID already exists
//	        Patterns: "duplicate key"
//
//	DB002 - Unique constraint: This value must be unique but already exists
//	        Patterns: "unique constraint", "violates unique"
//
//	DB003 - Foreign key: Referenced record does not exist
//	        Patterns: "foreign key constraint", "violates foreign key"
//
//	DB004 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB006 - Deadlock: Database was busy with conflicting operations
//	        Patterns: "deadlock"
//
// # Record Errors (REC001-REC099)
//
//	REC001 - Partial save: Some rows could not be saved
//	         Patterns: "failed to save"
//
//	REC002 - Missing id: The row has no identifier
//	         Patterns: "missing id"
//
//	REC003 - Not found: The record no longer exists
//	         Patterns: "record not found"
//
//	REC004 - Unsaved edits: Another page's changes occupy this row
//	         Patterns: "unsaved edits"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date       Patterns: "invalid date"
//	VAL002 - Invalid number     Patterns: "invalid number"
//	VAL003 - Required field     Patterns: "is required"
//	VAL004 - Invalid email      Patterns: "invalid email"
//	VAL005 - Invalid boolean    Patterns: "must be yes/no"
//	VAL006 - Not allowed value  Patterns: "must be one of"
//	VAL007 - Unknown column     Patterns: "unknown column"
//	VAL008 - Rule failed        Patterns: "failed rule"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large    Patterns: "file too large"
//	FILE002 - Invalid CSV       Patterns: "invalid csv"
//	FILE003 - No file           Patterns: "no file provided"
//	FILE004 - Empty file        Patterns: "empty file"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy        Patterns: "too many concurrent imports"
//
// # Network Errors (NET001-NET099)
//
//	NET001 - Request timed out  Patterns: "context deadline exceeded", "timeout"
//	NET002 - Request cancelled  Patterns: "context canceled"
//	NET003 - Fetch failed       Patterns: "failed to fetch"
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Unknown table      Patterns: "unknown table"
//
// # Audit Errors (AUD001-AUD099)
//
//	AUD001 - No audit trail     Patterns: "audit trail is not enabled"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited      Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are defined
// before general ones.
package core

import "strings"

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Record Errors (REC001-REC003)
	// Checked first: batch and precondition errors wrap lower-level text.
	// =========================================================================
	{
		pattern: "failed to save",
		msg: UserMessage{
			Message: "Some rows could not be saved",
			Action:  "Review the highlighted rows and save again",
			Code:    "REC001",
		},
	},
	{
		pattern: "missing id",
		msg: UserMessage{
			Message: "The row has no identifier",
			Action:  "Reload the table and try again",
			Code:    "REC002",
		},
	},
	{
		pattern: "record not found",
		msg: UserMessage{
			Message: "The record no longer exists",
			Action:  "Reload the table to see the latest data",
			Code:    "REC003",
		},
	},
	{
		pattern: "unsaved edits",
		msg: UserMessage{
			Message: "This row still holds unsaved changes from another page",
			Action:  "Save or discard your changes first",
			Code:    "REC004",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB006)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Use a different identifier",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Choose a value that is not already in use",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Choose a value that is not already in use",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Pick an existing value from the list",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Pick an existing value from the list",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL008)
	// =========================================================================
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD, MM/DD/YYYY, or Jan 15, 2024",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Remove currency symbols and use standard decimal format",
			Code:    "VAL002",
		},
	},
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Enter a value for this field",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid email",
		msg: UserMessage{
			Message: "Invalid email address",
			Action:  "Use the form name@example.com",
			Code:    "VAL004",
		},
	},
	{
		pattern: "must be yes/no",
		msg: UserMessage{
			Message: "Invalid yes/no value",
			Action:  "Use yes/no, true/false, or 1/0",
			Code:    "VAL005",
		},
	},
	{
		pattern: "must be one of",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Check the allowed values for this field",
			Code:    "VAL006",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "Column does not exist on this table",
			Action:  "Verify the column name is correct",
			Code:    "VAL007",
		},
	},
	{
		pattern: "failed rule",
		msg: UserMessage{
			Message: "Value does not meet the column's rules",
			Action:  "Correct the value and try again",
			Code:    "VAL008",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to import",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The imported file is empty",
			Action:  "Please import a CSV file with data rows",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Import Errors (IMP001)
	// =========================================================================
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},

	// =========================================================================
	// Network Errors (NET001-NET003)
	// =========================================================================
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Check your connection and try again",
			Code:    "NET001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Check your connection and try again",
			Code:    "NET001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "NET002",
		},
	},
	{
		pattern: "failed to fetch",
		msg: UserMessage{
			Message: "Could not load data",
			Action:  "Check your connection and reload the table",
			Code:    "NET003",
		},
	},

	// =========================================================================
	// Table Errors (TBL001)
	// =========================================================================
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "Unknown table",
			Action:  "This table is not configured",
			Code:    "TBL001",
		},
	},

	// =========================================================================
	// Audit Errors (AUD001)
	// =========================================================================
	{
		pattern: "audit trail is not enabled",
		msg: UserMessage{
			Message: "No change history is kept for this server",
			Action:  "Enable AUDIT_ENABLED to record changes",
			Code:    "AUD001",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := fmt.Errorf("update users/7: %w", core.ErrNotFound)
//	msg := MapError(err)
//	// msg.Code == "REC003"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}
