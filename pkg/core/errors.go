package core

import "fmt"

// =============================================================================
// Errors
// =============================================================================

// ValidationError reports missing or inconsistent widget configuration.
// It is raised before any query is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a configuration field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// MissingRelationshipError is returned when a referenced table has no confirmed
// edge to the widget's base table.
type MissingRelationshipError struct {
	Base  string
	Table string
}

func (e *MissingRelationshipError) Error() string {
	return fmt.Sprintf("no confirmed relationship between %q and %q", e.Base, e.Table)
}

// QueryExecutionError wraps an error reported by the SQL engine.
type QueryExecutionError struct {
	SQL string
	Err error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}
