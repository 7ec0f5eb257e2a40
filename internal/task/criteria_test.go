package task_test

import (
	"testing"

	"taskmaster/internal/task"
)

func TestDefaultCriteria(t *testing.T) {
	c := task.DefaultCriteria()
	if c.Scope != task.ScopeAll || c.SortKey != task.SortCreatedAt || c.SortDirection != task.Descending {
		t.Errorf("unexpected default criteria: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default criteria invalid: %v", err)
	}
}

func TestCriteriaValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       task.Criteria
		wantErr bool
	}{
		{"valid", task.Criteria{Scope: task.ScopeActive, SortKey: task.SortTitle, SortDirection: task.Ascending}, false},
		{"bad scope", task.Criteria{Scope: "pending", SortKey: task.SortTitle, SortDirection: task.Ascending}, true},
		{"bad sort key", task.Criteria{Scope: task.ScopeAll, SortKey: "priority", SortDirection: task.Ascending}, true},
		{"bad direction", task.Criteria{Scope: task.ScopeAll, SortKey: task.SortTitle, SortDirection: "sideways"}, true},
		{"zero value", task.Criteria{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNextScopeCycles(t *testing.T) {
	c := task.DefaultCriteria()
	want := []task.Scope{task.ScopeActive, task.ScopeCompleted, task.ScopeAll}
	for i, scope := range want {
		c = c.NextScope()
		if c.Scope != scope {
			t.Fatalf("step %d: scope = %q, want %q", i, c.Scope, scope)
		}
	}
}

func TestNextSortKeyCycles(t *testing.T) {
	c := task.DefaultCriteria()
	want := []task.SortKey{task.SortDueDate, task.SortTitle, task.SortCreatedAt}
	for i, key := range want {
		c = c.NextSortKey()
		if c.SortKey != key {
			t.Fatalf("step %d: sort key = %q, want %q", i, c.SortKey, key)
		}
	}
}

func TestFlipDirection(t *testing.T) {
	c := task.DefaultCriteria()
	if c = c.FlipDirection(); c.SortDirection != task.Ascending {
		t.Errorf("first flip: %q, want asc", c.SortDirection)
	}
	if c = c.FlipDirection(); c.SortDirection != task.Descending {
		t.Errorf("second flip: %q, want desc", c.SortDirection)
	}
}

func TestCriteriaCyclingKeepsOtherFields(t *testing.T) {
	c := task.Criteria{Scope: task.ScopeCompleted, SortKey: task.SortTitle, SortDirection: task.Ascending}
	next := c.NextScope()
	if next.SortKey != c.SortKey || next.SortDirection != c.SortDirection {
		t.Errorf("NextScope changed sort fields: %+v", next)
	}
}
