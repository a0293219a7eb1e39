package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a tri-state JSON field: absent, explicit null, or a value.
// Absent leaves the stored column untouched, null clears it.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns an Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// HasValue reports whether the field was supplied with a non-null value.
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

// UnmarshalJSON is only invoked when the key is present in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON writes null for cleared fields. Unset fields are dropped by the
// omitzero tag on the patch structs.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.HasValue() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// TaskPatch is a partial task update.
type TaskPatch struct {
	Title       Optional[string] `json:"title,omitzero"`
	Description Optional[string] `json:"description,omitzero"`
	Status      Optional[string] `json:"status,omitzero"`
	Priority    Optional[string] `json:"priority,omitzero"`
	DueDate     Optional[string] `json:"dueDate,omitzero"`
	ProjectID   Optional[string] `json:"projectId,omitzero"`
}

// Empty reports whether no field was supplied.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set &&
		!p.Priority.Set && !p.DueDate.Set && !p.ProjectID.Set
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name        Optional[string] `json:"name,omitzero"`
	Description Optional[string] `json:"description,omitzero"`
	Status      Optional[string] `json:"status,omitzero"`
	Color       Optional[string] `json:"color,omitzero"`
	StartDate   Optional[string] `json:"startDate,omitzero"`
	EndDate     Optional[string] `json:"endDate,omitzero"`
}

// ProfilePatch is a partial profile update.
type ProfilePatch struct {
	Name            Optional[string] `json:"name,omitzero"`
	Email           Optional[string] `json:"email,omitzero"`
	ThemePreference Optional[string] `json:"themePreference,omitzero"`
}
