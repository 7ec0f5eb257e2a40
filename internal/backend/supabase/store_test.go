package supabase_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskmaster/internal/apperr"
	"taskmaster/internal/backend/supabase"
	"taskmaster/internal/config"
	"taskmaster/internal/store"
	"taskmaster/internal/task"
	"taskmaster/internal/testutil"
)

// capturedRequest records what the backend saw for one REST call.
type capturedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Prefer string
	Body   []byte
}

// newRESTServer serves canned responses and captures requests.
func newRESTServer(t *testing.T, status int, response string) (*supabase.Store, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Query = map[string]string{}
		for k := range r.URL.Query() {
			captured.Query[k] = r.URL.Query().Get(k)
		}
		captured.Prefer = r.Header.Get("Prefer")
		captured.Body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	sessions := testutil.NewFakeSessionProvider(nil)
	st := supabase.NewStore(config.Project{URL: srv.URL, APIKey: "anon"}, sessions)
	return st, captured
}

func TestQuerySendsOwnerScopedFilters(t *testing.T) {
	st, captured := newRESTServer(t, http.StatusOK, `[]`)

	c := task.Criteria{Scope: task.ScopeActive, SortKey: task.SortTitle, SortDirection: task.Ascending}
	if _, err := st.Query(context.Background(), "u1", c); err != nil {
		t.Fatalf("Query: %v", err)
	}

	if captured.Path != "/rest/v1/tasks" {
		t.Errorf("path = %q", captured.Path)
	}
	want := map[string]string{
		"select":       "*",
		"user_id":      "eq.u1",
		"is_completed": "eq.false",
		"order":        "title.asc",
	}
	for k, v := range want {
		if captured.Query[k] != v {
			t.Errorf("query[%s] = %q, want %q", k, captured.Query[k], v)
		}
	}
}

func TestQueryDueDateOrderNullsLast(t *testing.T) {
	st, captured := newRESTServer(t, http.StatusOK, `[]`)

	c := task.Criteria{Scope: task.ScopeAll, SortKey: task.SortDueDate, SortDirection: task.Descending}
	if _, err := st.Query(context.Background(), "u1", c); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got := captured.Query["order"]; got != "due_date.desc.nullslast" {
		t.Errorf("order = %q, want due_date.desc.nullslast", got)
	}
	if _, ok := captured.Query["is_completed"]; ok {
		t.Error("scope all must not filter on is_completed")
	}
}

func TestQueryDecodesRows(t *testing.T) {
	st, _ := newRESTServer(t, http.StatusOK, `[
		{"id": "t1", "title": "A", "category": "work", "user_id": "u1"},
		{"title": "dropped, no id", "category": "work", "user_id": "u1"}
	]`)

	tasks, err := st.Query(context.Background(), "u1", task.DefaultCriteria())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Errorf("got %+v, want just t1", tasks)
	}
}

func TestQueryStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		want   string
	}{
		{http.StatusUnauthorized, apperr.IsAuth, "auth"},
		{http.StatusForbidden, apperr.IsAuth, "auth"},
		{http.StatusNotFound, apperr.IsNotFound, "not found"},
		{http.StatusInternalServerError, apperr.IsStore, "store"},
	}
	for _, tt := range tests {
		st, _ := newRESTServer(t, tt.status, `{}`)
		_, err := st.Query(context.Background(), "u1", task.DefaultCriteria())
		if err == nil {
			t.Errorf("status %d: expected error", tt.status)
			continue
		}
		if !tt.check(err) {
			t.Errorf("status %d: want %s class, got %v", tt.status, tt.want, err)
		}
	}
}

func TestQueryRequiresOwner(t *testing.T) {
	st, captured := newRESTServer(t, http.StatusOK, `[]`)
	_, err := st.Query(context.Background(), "", task.DefaultCriteria())
	if !apperr.IsAuth(err) {
		t.Errorf("want auth error, got %v", err)
	}
	if captured.Method != "" {
		t.Error("request must not reach the backend without an owner")
	}
}

func TestQueryRejectsInvalidCriteria(t *testing.T) {
	st, _ := newRESTServer(t, http.StatusOK, `[]`)
	_, err := st.Query(context.Background(), "u1", task.Criteria{Scope: "bogus"})
	if !apperr.IsValidation(err) {
		t.Errorf("want validation error, got %v", err)
	}
}

func TestInsert(t *testing.T) {
	st, captured := newRESTServer(t, http.StatusCreated, ``)

	err := st.Insert(context.Background(), task.Task{
		Title:    "Buy milk",
		Category: task.CategoryShopping,
		UserID:   "u1",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if captured.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", captured.Method)
	}
	if captured.Prefer != "return=minimal" {
		t.Errorf("Prefer = %q, want return=minimal", captured.Prefer)
	}
	var sent task.Task
	if err := json.Unmarshal(captured.Body, &sent); err != nil {
		t.Fatalf("body: %v", err)
	}
	if sent.Title != "Buy milk" || sent.UserID != "u1" {
		t.Errorf("sent %+v", sent)
	}
}

func TestUpdateSendsPatch(t *testing.T) {
	st, captured := newRESTServer(t, http.StatusOK, `[{"id": "t1"}]`)

	title := "New"
	err := st.Update(context.Background(), "u1", "t1", store.Patch{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if captured.Method != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", captured.Method)
	}
	if captured.Query["id"] != "eq.t1" || captured.Query["user_id"] != "eq.u1" {
		t.Errorf("filters = %v", captured.Query)
	}
	if captured.Prefer != "return=representation" {
		t.Errorf("Prefer = %q, affected rows are how a miss is detected", captured.Prefer)
	}
}

func TestUpdateZeroRowsIsNotFound(t *testing.T) {
	st, _ := newRESTServer(t, http.StatusOK, `[]`)

	title := "New"
	err := st.Update(context.Background(), "u1", "gone", store.Patch{Title: &title})
	if !apperr.IsNotFound(err) {
		t.Errorf("want not found, got %v", err)
	}
}

func TestUpdateEmptyPatchRejected(t *testing.T) {
	st, captured := newRESTServer(t, http.StatusOK, `[]`)
	err := st.Update(context.Background(), "u1", "t1", store.Patch{})
	if !apperr.IsValidation(err) {
		t.Errorf("want validation error, got %v", err)
	}
	if captured.Method != "" {
		t.Error("empty patch must not reach the backend")
	}
}

func TestToggleCompareAndSet(t *testing.T) {
	st, captured := newRESTServer(t, http.StatusOK, `[{"id": "t1"}]`)

	if err := st.Toggle(context.Background(), "u1", "t1", false); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	// The filter pins the value the user saw; the body flips it.
	if captured.Query["is_completed"] != "eq.false" {
		t.Errorf("CAS filter = %q, want eq.false", captured.Query["is_completed"])
	}
	var body map[string]bool
	if err := json.Unmarshal(captured.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["is_completed"] != true {
		t.Errorf("body = %v, want is_completed true", body)
	}
}

func TestToggleMissIsNotFound(t *testing.T) {
	st, _ := newRESTServer(t, http.StatusOK, `[]`)
	err := st.Toggle(context.Background(), "u1", "t1", false)
	if !apperr.IsNotFound(err) {
		t.Errorf("want not found on CAS miss, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	st, captured := newRESTServer(t, http.StatusOK, `[{"id": "t1"}]`)

	if err := st.Delete(context.Background(), "u1", "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if captured.Method != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", captured.Method)
	}
	if captured.Query["id"] != "eq.t1" || captured.Query["user_id"] != "eq.u1" {
		t.Errorf("filters = %v", captured.Query)
	}
}

func TestDeleteGoneIsNotFound(t *testing.T) {
	st, _ := newRESTServer(t, http.StatusOK, `[]`)
	err := st.Delete(context.Background(), "u1", "gone")
	if !apperr.IsNotFound(err) {
		t.Errorf("want not found, got %v", err)
	}
}
