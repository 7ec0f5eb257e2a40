package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"taskmaster/internal/apperr"
	"taskmaster/internal/config"
	"taskmaster/internal/session"
	"taskmaster/internal/store"
	"taskmaster/internal/task"
)

const restTasksPath = "/rest/v1/tasks"

// Store implements store.Store against the PostgREST tasks relation.
// Every request is owner-scoped twice: the backend's row policies enforce
// it, and the client filters by user_id anyway so a policy mistake cannot
// silently widen a query.
type Store struct {
	project  config.Project
	sessions session.Provider
}

// NewStore creates a task store client for the given project.
func NewStore(project config.Project, sessions session.Provider) *Store {
	return &Store{project: project, sessions: sessions}
}

// Query implements store.Store. Scope filtering and ordering happen in
// the store query, not client-side.
func (s *Store) Query(ctx context.Context, ownerID string, c task.Criteria) ([]task.Task, error) {
	const op = "query"
	if ownerID == "" {
		return nil, apperr.New(apperr.Auth, op, "no owner")
	}
	if err := c.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.Validation, op, err)
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+ownerID)
	switch c.Scope {
	case task.ScopeActive:
		q.Set("is_completed", "eq.false")
	case task.ScopeCompleted:
		q.Set("is_completed", "eq.true")
	}
	order := string(c.SortKey) + "." + string(c.SortDirection)
	if c.SortKey == task.SortDueDate {
		// Tasks without a due date sort after dated ones in either direction.
		order += ".nullslast"
	}
	q.Set("order", order)

	body, err := s.do(ctx, op, http.MethodGet, q, nil, "")
	if err != nil {
		return nil, err
	}

	tasks, skipped, err := task.DecodeRows(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, op, err)
	}
	if skipped > 0 {
		slog.Warn("dropped malformed task rows", "count", skipped)
	}
	return tasks, nil
}

// Insert implements store.Store.
func (s *Store) Insert(ctx context.Context, t task.Task) error {
	const op = "insert"
	_, err := s.do(ctx, op, http.MethodPost, nil, t, "return=minimal")
	return err
}

// Update implements store.Store. The user_id filter makes rows owned by
// other users look absent, which PostgREST reports as zero updated rows.
func (s *Store) Update(ctx context.Context, ownerID, taskID string, p store.Patch) error {
	const op = "update"
	if p.IsZero() {
		return apperr.New(apperr.Validation, op, "nothing to update")
	}

	q := url.Values{}
	q.Set("id", "eq."+taskID)
	q.Set("user_id", "eq."+ownerID)

	return s.writeExpectingRows(ctx, op, http.MethodPatch, q, p)
}

// Toggle implements store.Store. The is_completed filter is the
// compare-and-set: a concurrent toggle makes this write match zero rows.
func (s *Store) Toggle(ctx context.Context, ownerID, taskID string, current bool) error {
	const op = "toggle"

	q := url.Values{}
	q.Set("id", "eq."+taskID)
	q.Set("user_id", "eq."+ownerID)
	if current {
		q.Set("is_completed", "eq.true")
	} else {
		q.Set("is_completed", "eq.false")
	}

	body := map[string]bool{"is_completed": !current}
	return s.writeExpectingRows(ctx, op, http.MethodPatch, q, body)
}

// Delete implements store.Store. Deleting an absent id reports not found,
// which callers treat as non-fatal.
func (s *Store) Delete(ctx context.Context, ownerID, taskID string) error {
	const op = "delete"

	q := url.Values{}
	q.Set("id", "eq."+taskID)
	q.Set("user_id", "eq."+ownerID)

	return s.writeExpectingRows(ctx, op, http.MethodDelete, q, nil)
}

// writeExpectingRows performs a filtered write and requires at least one
// affected row, surfacing zero matches as not found.
func (s *Store) writeExpectingRows(ctx context.Context, op, method string, q url.Values, body any) error {
	raw, err := s.do(ctx, op, method, q, body, "return=representation")
	if err != nil {
		return err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return apperr.Wrap(apperr.Store, op, err)
	}
	if len(rows) == 0 {
		return apperr.New(apperr.NotFound, op, "task not found")
	}
	return nil
}

// do performs one REST call with the per-call timeout the client applies
// to every backend request.
func (s *Store) do(ctx context.Context, op, method string, q url.Values, body any, prefer string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	client, err := s.sessions.Client(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Auth, op, err)
	}

	u := s.project.URL + restTasksPath
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, apperr.Wrap(apperr.Store, op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, wrapError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(op, err)
	}
	if resp.StatusCode >= 400 {
		slog.Debug("backend request failed", "op", op, "status", resp.StatusCode)
		return nil, statusError(op, resp.StatusCode)
	}
	return data, nil
}
