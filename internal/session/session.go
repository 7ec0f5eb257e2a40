// Package session defines the backend-agnostic interface to the identity
// provider. The rest of the client holds only a read reference to the
// session; issuing and renewing credentials is the provider's problem.
package session

import (
	"context"
	"net/http"
	"time"
)

// Session is an authenticated identity. The access credential itself
// stays inside the provider; consumers see only who is signed in.
type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Provider issues and tracks the current session.
type Provider interface {
	// Current probes for an existing session. Returns (nil, nil) when
	// signed out; an error only on unexpected failure.
	Current(ctx context.Context) (*Session, error)

	// SignIn authenticates with email and password and persists the
	// resulting credential.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignOut revokes and removes the stored credential. Idempotent.
	SignOut(ctx context.Context) error

	// Changes delivers session transitions made through this provider:
	// a non-nil session after sign-in, nil after sign-out or expiry.
	Changes() <-chan *Session

	// Client returns an HTTP client that attaches the current credential
	// to every request, refreshing it as needed.
	Client(ctx context.Context) (*http.Client, error)
}
