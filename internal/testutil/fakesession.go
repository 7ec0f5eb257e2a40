package testutil

import (
	"context"
	"net/http"
	"sync"

	"taskmaster/internal/session"
)

// FakeSessionProvider is an in-memory implementation of
// session.Provider.
type FakeSessionProvider struct {
	mu   sync.Mutex
	sess *session.Session

	// Error injection for testing
	CurrentErr error
	SignInErr  error
	SignOutErr error

	// NextUserID is assigned on the next successful SignIn.
	NextUserID string

	changes chan *session.Session
}

// NewFakeSessionProvider creates a provider with the given current
// session (nil for signed out).
func NewFakeSessionProvider(sess *session.Session) *FakeSessionProvider {
	return &FakeSessionProvider{
		sess:       sess,
		NextUserID: "user-1",
		changes:    make(chan *session.Session, 4),
	}
}

// Current implements session.Provider.
func (f *FakeSessionProvider) Current(ctx context.Context) (*session.Session, error) {
	if f.CurrentErr != nil {
		return nil, f.CurrentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sess == nil {
		return nil, nil
	}
	copied := *f.sess
	return &copied, nil
}

// SignIn implements session.Provider.
func (f *FakeSessionProvider) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	f.mu.Lock()
	f.sess = &session.Session{UserID: f.NextUserID, Email: email}
	copied := *f.sess
	f.mu.Unlock()
	f.Emit(&copied)
	return &copied, nil
}

// SignOut implements session.Provider.
func (f *FakeSessionProvider) SignOut(ctx context.Context) error {
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.mu.Lock()
	f.sess = nil
	f.mu.Unlock()
	f.Emit(nil)
	return nil
}

// Changes implements session.Provider.
func (f *FakeSessionProvider) Changes() <-chan *session.Session {
	return f.changes
}

// Client implements session.Provider.
func (f *FakeSessionProvider) Client(ctx context.Context) (*http.Client, error) {
	return http.DefaultClient, nil
}

// Emit pushes a session transition, e.g. to simulate expiry.
func (f *FakeSessionProvider) Emit(sess *session.Session) {
	select {
	case f.changes <- sess:
	default:
	}
}

// SetSession replaces the current session without emitting a change.
func (f *FakeSessionProvider) SetSession(sess *session.Session) {
	f.mu.Lock()
	f.sess = sess
	f.mu.Unlock()
}
