package store

import (
	"encoding/json"

	"taskmaster/internal/task"
)

// Patch is a partial update of the mutable task fields. Nil fields are
// left untouched. ClearDueDate removes the due date explicitly, which
// needs a JSON null rather than an omitted key.
type Patch struct {
	Title        *string
	Description  *string
	Category     *task.Category
	DueDate      *task.Date
	ClearDueDate bool
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.DueDate == nil && !p.ClearDueDate
}

// MarshalJSON emits only the fields present in the patch.
func (p Patch) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, 4)
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Category != nil {
		fields["category"] = *p.Category
	}
	switch {
	case p.DueDate != nil:
		fields["due_date"] = *p.DueDate
	case p.ClearDueDate:
		fields["due_date"] = nil
	}
	return json.Marshal(fields)
}
