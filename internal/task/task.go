// Package task defines the task record and the filter/sort criteria used
// to query it. Rows coming back from the remote store are decoded into the
// typed struct here, at the boundary; malformed rows never propagate inward.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category is a closed enumeration of task categories.
type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryWork     Category = "work"
	CategoryShopping Category = "shopping"
	CategoryHealth   Category = "health"
)

// Categories lists all known categories in display order.
var Categories = []Category{
	CategoryPersonal,
	CategoryWork,
	CategoryShopping,
	CategoryHealth,
}

// ParseCategory finds a category by name (case-insensitive, trimmed).
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category: %s", s)
	}
	return c, nil
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// dateLayout is the wire format for due dates: a calendar date with no
// time component.
const dateLayout = "2006-01-02"

// Date is a calendar date. It marshals as "2006-01-02" and accepts
// timestamp-suffixed values from the store by truncating them.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON implements json.Unmarshaler. It accepts both bare dates
// and RFC 3339 timestamps, keeping only the date part.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task is a single task record as stored in the remote tasks relation.
// ID, CreatedAt, and UserID are assigned or enforced by the store and are
// immutable from the client's perspective.
type Task struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	DueDate     *Date     `json:"due_date,omitempty"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UserID      string    `json:"user_id"`
}

// DecodeRows unmarshals a JSON array of task rows. Rows without an id or
// owner are dropped (the store should never produce them, but an untyped
// row must not travel past this boundary); unknown categories coerce to
// personal. The skipped count lets the caller log what was dropped.
func DecodeRows(data []byte) (tasks []Task, skipped int, err error) {
	var rows []Task
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, 0, fmt.Errorf("decoding task rows: %w", err)
	}
	tasks = make([]Task, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" || row.UserID == "" {
			skipped++
			continue
		}
		if !row.Category.Valid() {
			row.Category = CategoryPersonal
		}
		tasks = append(tasks, row)
	}
	return tasks, skipped, nil
}
