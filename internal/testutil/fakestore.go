// Package testutil provides testing utilities: in-memory fakes for the
// remote store and the session provider, with per-operation error
// injection.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskmaster/internal/apperr"
	"taskmaster/internal/store"
	"taskmaster/internal/task"
)

// FakeStore is an in-memory implementation of store.Store. Mutations
// notify open subscriptions, mirroring the backend's change feed, so
// view-model convergence can be tested end to end.
type FakeStore struct {
	mu    sync.Mutex
	tasks map[string]task.Task
	seq   int

	// Error injection for testing
	QueryErr     error
	InsertErr    error
	UpdateErr    error
	ToggleErr    error
	DeleteErr    error
	SubscribeErr error

	// QueryHook, if set, runs before each query reads state. Tests use it
	// to stall specific fetches and force result reordering.
	QueryHook func(c task.Criteria)

	queryCount int
	subs       []*FakeSubscription
}

// NewFakeStore creates an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{tasks: make(map[string]task.Task)}
}

// Seed inserts a task directly, without notification. Assigns an id and
// a strictly increasing creation time when missing. Returns the id.
func (f *FakeStore) Seed(t task.Task) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.put(t)
}

func (f *FakeStore) put(t task.Task) string {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		f.seq++
		t.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(f.seq) * time.Minute)
	}
	f.tasks[t.ID] = t
	return t.ID
}

// Get returns a stored task by id.
func (f *FakeStore) Get(id string) (task.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}

// Len returns the number of stored tasks.
func (f *FakeStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// QueryCount returns how many queries have been served.
func (f *FakeStore) QueryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queryCount
}

// Subscriptions returns every subscription ever opened.
func (f *FakeStore) Subscriptions() []*FakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := make([]*FakeSubscription, len(f.subs))
	copy(subs, f.subs)
	return subs
}

// Notify signals every open subscription, as an external mutation would.
func (f *FakeStore) Notify() {
	f.mu.Lock()
	subs := make([]*FakeSubscription, len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, sub := range subs {
		sub.signal()
	}
}

// Query implements store.Store with the backend's filter and order
// semantics: owner scoping, scope filter, sort key and direction, tasks
// without a due date last.
func (f *FakeStore) Query(ctx context.Context, ownerID string, c task.Criteria) ([]task.Task, error) {
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	if hook := f.QueryHook; hook != nil {
		hook(c)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCount++

	var result []task.Task
	for _, t := range f.tasks {
		if t.UserID != ownerID {
			continue
		}
		switch c.Scope {
		case task.ScopeActive:
			if t.IsCompleted {
				continue
			}
		case task.ScopeCompleted:
			if !t.IsCompleted {
				continue
			}
		}
		result = append(result, t)
	}

	asc := c.SortDirection == task.Ascending
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch c.SortKey {
		case task.SortTitle:
			if asc {
				return strings.ToLower(a.Title) < strings.ToLower(b.Title)
			}
			return strings.ToLower(a.Title) > strings.ToLower(b.Title)
		case task.SortDueDate:
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return false
			case a.DueDate == nil:
				return false // nulls last
			case b.DueDate == nil:
				return true
			}
			if asc {
				return a.DueDate.Before(b.DueDate.Time)
			}
			return a.DueDate.After(b.DueDate.Time)
		default:
			if asc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return result, nil
}

// Insert implements store.Store.
func (f *FakeStore) Insert(ctx context.Context, t task.Task) error {
	if f.InsertErr != nil {
		return f.InsertErr
	}
	f.mu.Lock()
	f.put(t)
	f.mu.Unlock()
	f.Notify()
	return nil
}

// Update implements store.Store.
func (f *FakeStore) Update(ctx context.Context, ownerID, taskID string, p store.Patch) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}

	f.mu.Lock()
	t, ok := f.tasks[taskID]
	if !ok || t.UserID != ownerID {
		f.mu.Unlock()
		return apperr.New(apperr.NotFound, "update", "task not found")
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	switch {
	case p.DueDate != nil:
		d := *p.DueDate
		t.DueDate = &d
	case p.ClearDueDate:
		t.DueDate = nil
	}
	f.tasks[taskID] = t
	f.mu.Unlock()

	f.Notify()
	return nil
}

// Toggle implements store.Store, including the compare-and-set: a stale
// current value misses, exactly like the filtered write at the backend.
func (f *FakeStore) Toggle(ctx context.Context, ownerID, taskID string, current bool) error {
	if f.ToggleErr != nil {
		return f.ToggleErr
	}

	f.mu.Lock()
	t, ok := f.tasks[taskID]
	if !ok || t.UserID != ownerID || t.IsCompleted != current {
		f.mu.Unlock()
		return apperr.New(apperr.NotFound, "toggle", "task not found")
	}
	t.IsCompleted = !current
	f.tasks[taskID] = t
	f.mu.Unlock()

	f.Notify()
	return nil
}

// Delete implements store.Store.
func (f *FakeStore) Delete(ctx context.Context, ownerID, taskID string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	f.mu.Lock()
	t, ok := f.tasks[taskID]
	if !ok || t.UserID != ownerID {
		f.mu.Unlock()
		return apperr.New(apperr.NotFound, "delete", "task not found")
	}
	delete(f.tasks, taskID)
	f.mu.Unlock()

	f.Notify()
	return nil
}

// Subscribe implements store.Store.
func (f *FakeStore) Subscribe(ctx context.Context, ownerID string) (store.Subscription, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	if ownerID == "" {
		return nil, apperr.New(apperr.Auth, "subscribe", "no owner")
	}

	sub := &FakeSubscription{
		OwnerID: ownerID,
		ch:      make(chan struct{}, 1),
	}
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub, nil
}

// FakeSubscription is an open change feed on a FakeStore.
type FakeSubscription struct {
	OwnerID string

	mu         sync.Mutex
	ch         chan struct{}
	closed     bool
	closeCalls int
}

// Changes implements store.Subscription.
func (s *FakeSubscription) Changes() <-chan struct{} {
	return s.ch
}

// Close implements store.Subscription.
func (s *FakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *FakeSubscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// CloseCalls returns how many times Close was called.
func (s *FakeSubscription) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

func (s *FakeSubscription) signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}
