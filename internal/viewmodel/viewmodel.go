// Package viewmodel keeps a local view of the signed-in user's task list
// consistent under external mutation, local actions, and criteria
// changes. It never mutates tasks itself: the store is the single source
// of truth, and this loop's only job is deciding when to re-fetch and
// which fetch results are still worth applying.
package viewmodel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"taskmaster/internal/apperr"
	"taskmaster/internal/store"
	"taskmaster/internal/task"
)

// DefaultDebounce is the window in which change-feed events coalesce
// into a single reload.
const DefaultDebounce = 50 * time.Millisecond

// Snapshot is one published list state: the tasks as the store reported
// them, the criteria they answer, and the error if the load failed (in
// which case Tasks is empty, never stale data presented as current).
type Snapshot struct {
	Tasks    []task.Task
	Criteria task.Criteria
	Err      error
}

// ViewModel synchronizes the task list for one user. It owns the change
// subscription for the session: acquired in Start, released exactly once
// when the context ends or Close is called.
//
// All coordination happens in one run loop; fetches execute concurrently
// but their results are applied (or discarded) only by the loop, using a
// generation token. There is no locking around list state because the
// loop is the only writer.
type ViewModel struct {
	store  store.Store
	userID string

	// Debounce overrides DefaultDebounce. Set before Start.
	Debounce time.Duration

	initial    task.Criteria
	criteriaCh chan task.Criteria
	snapshots  chan Snapshot
	done       chan struct{}
	closeOnce  sync.Once
}

// New creates a view-model for the given user with initial criteria.
func New(st store.Store, userID string, initial task.Criteria) *ViewModel {
	return &ViewModel{
		store:      st,
		userID:     userID,
		Debounce:   DefaultDebounce,
		initial:    initial,
		criteriaCh: make(chan task.Criteria, 4),
		snapshots:  make(chan Snapshot, 1),
		done:       make(chan struct{}),
	}
}

// Start subscribes to the change feed and begins the synchronization
// loop, triggering the initial load. The userID must already be
// resolved; subscribing before identity is known is exactly the scoping
// bug this type exists to rule out.
func (vm *ViewModel) Start(ctx context.Context) error {
	if vm.userID == "" {
		return apperr.New(apperr.Auth, "viewmodel", "no user id")
	}
	sub, err := vm.store.Subscribe(ctx, vm.userID)
	if err != nil {
		return err
	}
	go vm.run(ctx, sub)
	return nil
}

// SetCriteria requests a reload with new criteria. When calls overlap,
// the most recently requested criteria win; results for older criteria
// are discarded at apply time.
func (vm *ViewModel) SetCriteria(c task.Criteria) {
	select {
	case vm.criteriaCh <- c:
	case <-vm.done:
	}
}

// Snapshots delivers list states to the consumer. Only the newest
// snapshot is retained if the consumer falls behind.
func (vm *ViewModel) Snapshots() <-chan Snapshot {
	return vm.snapshots
}

// Close tears the view-model down. Safe to call multiple times.
func (vm *ViewModel) Close() error {
	vm.closeOnce.Do(func() { close(vm.done) })
	return nil
}

type fetchResult struct {
	gen      uint64
	criteria task.Criteria
	tasks    []task.Task
	err      error
}

func (vm *ViewModel) run(ctx context.Context, sub store.Subscription) {
	defer sub.Close()
	// The loop is the only sender, so closing here tells consumers the
	// view-model is gone without racing a publish.
	defer close(vm.snapshots)

	criteria := vm.initial
	var gen uint64
	results := make(chan fetchResult, 8)

	begin := func() {
		gen++
		go vm.fetch(ctx, gen, criteria, results)
	}
	begin()

	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case <-vm.done:
			return

		case c := <-vm.criteriaCh:
			criteria = c
			if debounce != nil {
				// The reload below covers whatever the pending events meant.
				debounce.Stop()
				debounce, debounceC = nil, nil
			}
			begin()

		case <-sub.Changes():
			if debounce == nil {
				debounce = time.NewTimer(vm.Debounce)
				debounceC = debounce.C
			}

		case <-debounceC:
			debounce, debounceC = nil, nil
			begin()

		case r := <-results:
			if r.gen != gen {
				slog.Debug("discarding stale load", "gen", r.gen, "current", gen)
				continue
			}
			snap := Snapshot{Tasks: r.tasks, Criteria: r.criteria, Err: r.err}
			if r.err != nil {
				snap.Tasks = nil
				slog.Warn("task load failed", "error", r.err)
			}
			vm.publish(snap)
		}
	}
}

func (vm *ViewModel) fetch(ctx context.Context, gen uint64, c task.Criteria, results chan<- fetchResult) {
	tasks, err := vm.store.Query(ctx, vm.userID, c)
	select {
	case results <- fetchResult{gen: gen, criteria: c, tasks: tasks, err: err}:
	case <-vm.done:
	case <-ctx.Done():
	}
}

// publish replaces any unconsumed snapshot. The run loop is the sole
// sender, so drain-then-send cannot block.
func (vm *ViewModel) publish(s Snapshot) {
	select {
	case <-vm.snapshots:
	default:
	}
	vm.snapshots <- s
}
