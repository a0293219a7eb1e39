package tracker

import (
	"fmt"
	"strings"
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NotFoundError is returned when a record is absent or owned by someone
// else. The two cases are deliberately indistinguishable.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " not found"
}

// ReorderError aborts a reorder batch. IDs lists the moves that did not
// match an owned task; nothing in the batch was persisted.
type ReorderError struct {
	IDs []string
}

func (e *ReorderError) Error() string {
	return fmt.Sprintf("reorder failed: %d task(s) not found: %s", len(e.IDs), strings.Join(e.IDs, ", "))
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
