package core

// validation.go checks cell values before they enter the edit buffer or an
// import batch, and table definitions before they enter the registry.
//
// Validation happens at two levels:
//  1. Type parsing: the raw string must parse as the column's type
//  2. Rule checking: the column's validator tag ("required,email", "min=3")
//
// Validation errors include the column key, the offending value and a
// human-readable message.

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error for a column.
type ValidationError struct {
	Field   string // Column key
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ParseCell converts raw input into the value stored for col:
// numbers become float64, booleans bool, dates an ISO-8601 string.
// Empty input yields nil. Select columns with options only accept listed values.
func ParseCell(col Column, raw string) (any, error) {
	if col.Normalize != nil && raw != "" {
		raw = col.Normalize(raw)
	}
	if strings.TrimSpace(raw) == "" {
		if col.Type == ColumnText || col.Type == ColumnTextarea || col.Type == "" {
			return raw, nil
		}
		return nil, nil
	}

	switch {
	case col.Type == ColumnNumber:
		f, ok := ParseNumber(raw)
		if !ok {
			return nil, ValidationError{Field: col.Key, Value: raw, Message: "invalid number format"}
		}
		return f, nil

	case col.Type == ColumnBoolean:
		b, ok := ParseBool(raw)
		if !ok {
			return nil, ValidationError{Field: col.Key, Value: raw, Message: "must be yes/no, true/false, or 1/0"}
		}
		return b, nil

	case col.IsDate():
		iso, ok := NormalizeDate(raw)
		if !ok {
			return nil, ValidationError{Field: col.Key, Value: raw, Message: "invalid date format (use YYYY-MM-DD or similar)"}
		}
		return iso, nil

	case col.Type == ColumnSelect && len(col.Options) > 0:
		for _, opt := range col.Options {
			if opt.Value == raw {
				return raw, nil
			}
		}
		values := make([]string, len(col.Options))
		for i, opt := range col.Options {
			values[i] = opt.Value
		}
		return nil, ValidationError{Field: col.Key, Value: raw, Message: "value must be one of: " + strings.Join(values, ", ")}
	}

	return raw, nil
}

// RuleValidator applies a column's validator tag to a parsed value.
type RuleValidator struct {
	validate *validator.Validate
}

// NewRuleValidator creates a RuleValidator backed by go-playground/validator.
func NewRuleValidator() *RuleValidator {
	return &RuleValidator{validate: validator.New()}
}

var defaultRules = sync.OnceValue(NewRuleValidator)

// Rules returns the process-wide RuleValidator.
func Rules() *RuleValidator {
	return defaultRules()
}

// ruleTag returns the effective validator tag for col.
func ruleTag(col Column) string {
	tag := col.Validation
	if col.Type == ColumnEmail && !strings.Contains(tag, "email") {
		if tag == "" {
			tag = "omitempty,email"
		} else {
			tag += ",omitempty,email"
		}
	}
	return tag
}

// Check validates value against col's rules. A nil error means the value passes.
func (v *RuleValidator) Check(col Column, value any) error {
	tag := ruleTag(col)
	if tag == "" {
		return nil
	}

	if value == nil {
		value = ""
	}

	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return ValidationError{
			Field:   col.Key,
			Value:   fmt.Sprint(value),
			Message: ruleMessage(fieldErrs[0]),
		}
	}
	return ValidationError{Field: col.Key, Value: fmt.Sprint(value), Message: err.Error()}
}

// compile reports whether the column's tag is understood by the validator.
// The validator panics on unknown tags, so the check runs under recover.
func (v *RuleValidator) compile(col Column) (err error) {
	tag := ruleTag(col)
	if tag == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("column %q: invalid validation rule %q: %v", col.Key, col.Validation, r)
		}
	}()
	_ = v.validate.Var("", tag)
	return nil
}

// ruleMessage turns a validator field error into a readable message.
func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "email":
		return "invalid email address"
	case "oneof":
		return "value must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "max", "len", "gte", "lte", "gt", "lt":
		return fmt.Sprintf("failed rule %s=%s", fe.Tag(), fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed rule %s=%s", fe.Tag(), fe.Param())
		}
		return "failed rule " + fe.Tag()
	}
}

// ValidateCell parses raw for col and applies the column's rules.
// Returns the parsed value on success.
func ValidateCell(col Column, raw string) (any, error) {
	value, err := ParseCell(col, raw)
	if err != nil {
		return nil, err
	}
	if err := Rules().Check(col, value); err != nil {
		return nil, err
	}
	return value, nil
}

var knownColumnTypes = map[ColumnType]bool{
	ColumnText: true, ColumnNumber: true, ColumnDate: true, ColumnSelect: true,
	ColumnEmail: true, ColumnBoolean: true, ColumnTextarea: true,
}

// ValidateDefinition checks a table definition for structural problems.
// Returns an error describing all failures.
func ValidateDefinition(def TableDefinition) error {
	var errs []string

	if def.Info.Key == "" {
		errs = append(errs, "info.key is required")
	}
	if len(def.Columns) == 0 {
		errs = append(errs, "at least one column is required")
	}

	seen := make(map[string]bool, len(def.Columns))
	for i, col := range def.Columns {
		if col.Key == "" {
			errs = append(errs, fmt.Sprintf("column %d: key is required", i))
			continue
		}
		if seen[col.Key] {
			errs = append(errs, fmt.Sprintf("column %q: duplicate key", col.Key))
		}
		seen[col.Key] = true
		if col.Type != "" && !knownColumnTypes[col.Type] {
			errs = append(errs, fmt.Sprintf("column %q: unknown type %q", col.Key, col.Type))
		}
		if err := Rules().compile(col); err != nil {
			errs = append(errs, err.Error())
		}
	}

	for _, key := range def.Search.Columns {
		if !seen[key] {
			errs = append(errs, fmt.Sprintf("search column %q is not a table column", key))
		}
	}

	if def.Select.Mode != "" && def.Select.Mode != SelectSingle && def.Select.Mode != SelectMulti {
		errs = append(errs, fmt.Sprintf("select mode %q must be single or multi", def.Select.Mode))
	}

	if def.Kanban.Enabled {
		k := def.Kanban
		if k.Identification == "" || k.ColumnContent == "" || k.ColumnIDName == "" {
			errs = append(errs, "kanban requires identification, column_content and column_id_name")
		}
		if len(k.Columns) == 0 {
			errs = append(errs, "kanban requires at least one column")
		}
	}

	for _, p := range def.Populate {
		if p.Field == "" || p.Source == "" {
			errs = append(errs, "populate requires field and source")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("table %q: validation failed:\n  - %s", def.Info.Key, strings.Join(errs, "\n  - "))
	}
	return nil
}
