// Package facade validates and submits task mutations. Every operation
// is attributed to the current session and goes straight to the store;
// none of them touch the view-model's list. Convergence happens only
// through the change feed, trading a little latency for a single source
// of truth.
package facade

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskmaster/internal/apperr"
	"taskmaster/internal/session"
	"taskmaster/internal/store"
	"taskmaster/internal/task"
)

// Facade submits create/update/toggle/delete requests.
type Facade struct {
	store    store.Store
	sessions session.Provider
	validate *validator.Validate
}

// New creates a mutation facade.
func New(st store.Store, sessions session.Provider) *Facade {
	v := validator.New()
	// required catches empty strings but not whitespace-only ones.
	_ = v.RegisterValidation("notblank", validateNotBlank)
	_ = v.RegisterValidation("category", validateCategory)
	return &Facade{store: st, sessions: sessions, validate: v}
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateCategory(fl validator.FieldLevel) bool {
	return task.Category(fl.Field().String()).Valid()
}

// CreateInput is a new-task submission.
type CreateInput struct {
	Title       string        `validate:"required,notblank,max=500"`
	Description string        `validate:"max=4000"`
	Category    task.Category `validate:"required,category"`
	DueDate     *task.Date
}

// UpdateInput is a partial edit. Nil fields are untouched; ClearDueDate
// removes the due date. ID and owner are never part of an update.
type UpdateInput struct {
	Title        *string        `validate:"omitempty,notblank,max=500"`
	Description  *string        `validate:"omitempty,max=4000"`
	Category     *task.Category `validate:"omitempty,category"`
	DueDate      *task.Date
	ClearDueDate bool
}

// Create validates the input and inserts a new task owned by the current
// session, not yet completed. The list refresh arrives via the change
// feed, not from this call.
func (f *Facade) Create(ctx context.Context, in CreateInput) error {
	const op = "create task"
	if err := f.validate.Struct(in); err != nil {
		return validationError(op, err)
	}

	sess, err := f.requireSession(ctx, op)
	if err != nil {
		return err
	}

	t := task.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		DueDate:     in.DueDate,
		IsCompleted: false,
		UserID:      sess.UserID,
	}
	if err := f.store.Insert(ctx, t); err != nil {
		return apperr.Wrap(apperr.Store, op, err)
	}
	return nil
}

// Update applies a partial edit to one of the current user's tasks. A
// task that does not exist, or belongs to someone else, reports not
// found.
func (f *Facade) Update(ctx context.Context, taskID string, in UpdateInput) error {
	const op = "update task"
	if err := f.validate.Struct(in); err != nil {
		return validationError(op, err)
	}

	p := store.Patch{
		Category:     in.Category,
		DueDate:      in.DueDate,
		ClearDueDate: in.ClearDueDate,
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		p.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		p.Description = &desc
	}
	if p.IsZero() {
		return apperr.New(apperr.Validation, op, "nothing to change")
	}

	sess, err := f.requireSession(ctx, op)
	if err != nil {
		return err
	}

	if err := f.store.Update(ctx, sess.UserID, taskID, p); err != nil {
		return apperr.Wrap(apperr.Store, op, err)
	}
	return nil
}

// ToggleComplete flips is_completed relative to the state the user was
// looking at. A concurrent toggle makes the compare-and-set miss; the
// refresh shows the authoritative value either way, never the local
// optimistic flip.
func (f *Facade) ToggleComplete(ctx context.Context, taskID string, current bool) error {
	const op = "toggle task"
	sess, err := f.requireSession(ctx, op)
	if err != nil {
		return err
	}

	if err := f.store.Toggle(ctx, sess.UserID, taskID, current); err != nil {
		return apperr.Wrap(apperr.Store, op, err)
	}
	return nil
}

// Delete removes a task. Deleting an id that is already gone reports a
// non-fatal not-found; the caller shows a notice and moves on.
func (f *Facade) Delete(ctx context.Context, taskID string) error {
	const op = "delete task"
	sess, err := f.requireSession(ctx, op)
	if err != nil {
		return err
	}

	if err := f.store.Delete(ctx, sess.UserID, taskID); err != nil {
		return apperr.Wrap(apperr.Store, op, err)
	}
	return nil
}

func (f *Facade) requireSession(ctx context.Context, op string) (*session.Session, error) {
	sess, err := f.sessions.Current(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Auth, op, err)
	}
	if sess == nil {
		return nil, apperr.New(apperr.Auth, op, "not signed in")
	}
	return sess, nil
}

// validationError turns validator output into a user-facing message.
func validationError(op string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch fe := verrs[0]; fe.Field() {
		case "Title":
			if fe.Tag() == "max" {
				return apperr.New(apperr.Validation, op, "title too long")
			}
			return apperr.New(apperr.Validation, op, "title must not be empty")
		case "Category":
			return apperr.New(apperr.Validation, op, "unknown category")
		default:
			return apperr.New(apperr.Validation, op, "invalid %s", strings.ToLower(fe.Field()))
		}
	}
	return apperr.Wrap(apperr.Validation, op, err)
}
