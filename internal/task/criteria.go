package task

import "fmt"

// Scope restricts which tasks a query returns.
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeActive    Scope = "active"
	ScopeCompleted Scope = "completed"
)

// SortKey names the column a query orders by.
type SortKey string

const (
	SortCreatedAt SortKey = "created_at"
	SortDueDate   SortKey = "due_date"
	SortTitle     SortKey = "title"
)

// SortDirection is the order direction.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Criteria is the complete filter/sort state of the task list. It is
// transient view state, never persisted.
type Criteria struct {
	Scope         Scope
	SortKey       SortKey
	SortDirection SortDirection
}

// DefaultCriteria is the criteria applied when the workspace opens:
// everything, newest first.
func DefaultCriteria() Criteria {
	return Criteria{
		Scope:         ScopeAll,
		SortKey:       SortCreatedAt,
		SortDirection: Descending,
	}
}

// Validate checks that every field holds a known value.
func (c Criteria) Validate() error {
	switch c.Scope {
	case ScopeAll, ScopeActive, ScopeCompleted:
	default:
		return fmt.Errorf("invalid scope: %q", c.Scope)
	}
	switch c.SortKey {
	case SortCreatedAt, SortDueDate, SortTitle:
	default:
		return fmt.Errorf("invalid sort key: %q", c.SortKey)
	}
	switch c.SortDirection {
	case Ascending, Descending:
	default:
		return fmt.Errorf("invalid sort direction: %q", c.SortDirection)
	}
	return nil
}

// NextScope cycles all -> active -> completed -> all.
func (c Criteria) NextScope() Criteria {
	switch c.Scope {
	case ScopeAll:
		c.Scope = ScopeActive
	case ScopeActive:
		c.Scope = ScopeCompleted
	default:
		c.Scope = ScopeAll
	}
	return c
}

// NextSortKey cycles created_at -> due_date -> title -> created_at.
func (c Criteria) NextSortKey() Criteria {
	switch c.SortKey {
	case SortCreatedAt:
		c.SortKey = SortDueDate
	case SortDueDate:
		c.SortKey = SortTitle
	default:
		c.SortKey = SortCreatedAt
	}
	return c
}

// FlipDirection toggles ascending/descending.
func (c Criteria) FlipDirection() Criteria {
	if c.SortDirection == Ascending {
		c.SortDirection = Descending
	} else {
		c.SortDirection = Ascending
	}
	return c
}
