package supabase

import (
	"context"
	"errors"
	"net/http"

	"taskmaster/internal/apperr"
)

// wrapError maps transport-level failures to the shared taxonomy.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.New(apperr.Store, op, "request timed out")
	}
	return apperr.Wrap(apperr.Store, op, err)
}

// statusError maps an HTTP error status to the shared taxonomy.
func statusError(op string, status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.New(apperr.Auth, op, "session expired or invalid")
	case http.StatusNotFound:
		return apperr.New(apperr.NotFound, op, "not found")
	default:
		return apperr.New(apperr.Store, op, "backend returned status %d", status)
	}
}
