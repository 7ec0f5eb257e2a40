// Package store defines the backend-agnostic interface for the remote
// tasks relation. All remote reads and writes go through this interface;
// the UI and the view-model never import the backend client directly.
package store

import (
	"context"

	"taskmaster/internal/task"
)

// Subscription is an open change feed for one owner's tasks. Events carry
// no delta payload: a receipt means "re-check current state". Close must
// be called exactly once when the consumer tears down.
type Subscription interface {
	// Changes delivers a signal whenever the owner's task set may have
	// changed. The channel is never closed while the subscription is open.
	Changes() <-chan struct{}

	// Close releases the subscription. Safe to call multiple times.
	Close() error
}

// Store is the remote task store. Every call is scoped to an owner; the
// backend enforces that rows belonging to other users are invisible, which
// surfaces here as a not-found error.
type Store interface {
	// Query returns the owner's tasks matching the criteria, filtered and
	// ordered by the store, not client-side.
	Query(ctx context.Context, ownerID string, c task.Criteria) ([]task.Task, error)

	// Insert creates a new task. ID and CreatedAt are assigned by the store.
	Insert(ctx context.Context, t task.Task) error

	// Update applies a partial update to one of the owner's tasks.
	Update(ctx context.Context, ownerID, taskID string, p Patch) error

	// Toggle sets is_completed to the negation of current, as a
	// compare-and-set against current. A concurrent change makes the write
	// miss, reported as not found; the authoritative state arrives through
	// the change feed either way.
	Toggle(ctx context.Context, ownerID, taskID string, current bool) error

	// Delete removes one of the owner's tasks.
	Delete(ctx context.Context, ownerID, taskID string) error

	// Subscribe opens a change feed scoped to the owner. The ownerID must
	// be resolved before this call; subscribing with an empty owner is an
	// error, never a wildcard.
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)
}
