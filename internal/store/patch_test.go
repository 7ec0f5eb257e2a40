package store_test

import (
	"encoding/json"
	"testing"
	"time"

	"taskmaster/internal/store"
	"taskmaster/internal/task"
)

func TestPatchIsZero(t *testing.T) {
	if !(store.Patch{}).IsZero() {
		t.Error("empty patch should be zero")
	}
	title := "t"
	if (store.Patch{Title: &title}).IsZero() {
		t.Error("patch with title should not be zero")
	}
	if (store.Patch{ClearDueDate: true}).IsZero() {
		t.Error("patch clearing due date should not be zero")
	}
}

func TestPatchMarshalOmitsAbsentFields(t *testing.T) {
	title := "New title"
	data, err := json.Marshal(store.Patch{Title: &title})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(m) != 1 || m["title"] != "New title" {
		t.Errorf("got %v, want only title", m)
	}
}

func TestPatchMarshalDueDate(t *testing.T) {
	d := task.NewDate(2026, time.June, 1)
	data, err := json.Marshal(store.Patch{DueDate: &d})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"due_date":"2026-06-01"}` {
		t.Errorf("got %s", data)
	}
}

func TestPatchMarshalClearDueDate(t *testing.T) {
	data, err := json.Marshal(store.Patch{ClearDueDate: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Clearing requires an explicit null; an omitted key would leave the
	// stored value in place.
	if string(data) != `{"due_date":null}` {
		t.Errorf("got %s, want explicit null", data)
	}
}

func TestPatchMarshalSetWinsOverClear(t *testing.T) {
	d := task.NewDate(2026, time.June, 1)
	data, err := json.Marshal(store.Patch{DueDate: &d, ClearDueDate: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"due_date":"2026-06-01"}` {
		t.Errorf("got %s, want the set date", data)
	}
}

func TestPatchMarshalAllFields(t *testing.T) {
	title, desc := "T", "D"
	cat := task.CategoryWork
	data, err := json.Marshal(store.Patch{Title: &title, Description: &desc, Category: &cat})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["title"] != "T" || m["description"] != "D" || m["category"] != "work" {
		t.Errorf("got %v", m)
	}
}
