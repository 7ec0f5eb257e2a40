// Package supabase implements the session.Provider and store.Store
// interfaces against a Supabase-style backend: a bearer-token auth
// endpoint, a PostgREST tasks relation, and a websocket change feed.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"taskmaster/internal/apperr"
	"taskmaster/internal/config"
	"taskmaster/internal/session"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	authTokenPath  = "/auth/v1/token"
	authLogoutPath = "/auth/v1/logout"
)

// Auth implements session.Provider. The credential is persisted as an
// oauth2.Token in the config directory and renewed through a refreshing
// token source, the same shape the stored-token flow has always had here.
type Auth struct {
	cfg     *config.Config
	project config.Project
	base    *http.Client

	mu      sync.Mutex
	ts      oauth2.TokenSource
	changes chan *session.Session
}

// NewAuth creates a session provider for the given project.
func NewAuth(cfg *config.Config, project config.Project) *Auth {
	return &Auth{
		cfg:     cfg,
		project: project,
		base: &http.Client{
			Timeout: APITimeout,
			Transport: &apikeyTransport{
				key:  project.APIKey,
				base: http.DefaultTransport,
			},
		},
		changes: make(chan *session.Session, 4),
	}
}

// apikeyTransport attaches the publishable API key to every request.
type apikeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apikeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("apikey", t.key)
	return t.base.RoundTrip(clone)
}

// Current implements session.Provider. A missing token file means signed
// out, not an error. A token that can no longer be refreshed is removed
// and likewise reported as signed out.
func (a *Auth) Current(ctx context.Context) (*session.Session, error) {
	tok, err := a.loadToken()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Auth, "session probe", err)
	}

	fresh, err := a.tokenSource(tok).Token()
	if err != nil {
		slog.Warn("stored session could not be renewed", "error", err)
		_ = a.cfg.RemoveToken()
		a.resetTokenSource()
		return nil, nil
	}

	sess, err := sessionFromToken(fresh)
	if err != nil {
		return nil, apperr.Wrap(apperr.Auth, "session probe", err)
	}
	return sess, nil
}

// SignIn implements session.Provider.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	tok, err := a.tokenRequest(ctx, "sign in", "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	sess, err := sessionFromToken(tok)
	if err != nil {
		return nil, apperr.Wrap(apperr.Auth, "sign in", err)
	}
	if err := a.saveToken(tok); err != nil {
		return nil, apperr.Wrap(apperr.Auth, "sign in", err)
	}
	a.resetTokenSource()

	slog.Info("signed in", "user_id", sess.UserID)
	a.emit(sess)
	return sess, nil
}

// SignOut implements session.Provider. Revocation at the backend is best
// effort; removing the stored token is what ends the session locally.
func (a *Auth) SignOut(ctx context.Context) error {
	if tok, err := a.loadToken(); err == nil {
		a.revoke(ctx, tok.AccessToken)
	}
	a.resetTokenSource()

	if a.cfg.HasToken() {
		if err := a.cfg.RemoveToken(); err != nil {
			return apperr.Wrap(apperr.Auth, "sign out", err)
		}
	}

	slog.Info("signed out")
	a.emit(nil)
	return nil
}

// Changes implements session.Provider.
func (a *Auth) Changes() <-chan *session.Session {
	return a.changes
}

// Client implements session.Provider. The returned client layers the
// bearer credential on top of the API-key transport, refreshing the token
// as needed.
func (a *Auth) Client(ctx context.Context) (*http.Client, error) {
	tok, err := a.loadToken()
	if err != nil {
		return nil, apperr.New(apperr.Auth, "store", "not signed in")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.base)
	return oauth2.NewClient(ctx, a.tokenSource(tok)), nil
}

func (a *Auth) emit(sess *session.Session) {
	select {
	case a.changes <- sess:
	default:
		slog.Warn("session change dropped, consumer not keeping up")
	}
}

func (a *Auth) revoke(ctx context.Context, accessToken string) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.project.URL+authLogoutPath, nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := a.base.Do(req)
	if err != nil {
		slog.Debug("token revocation failed", "error", err)
		return
	}
	resp.Body.Close()
}

// tokenSource returns the cached refreshing source, building it on first
// use after a sign-in or probe.
func (a *Auth) tokenSource(tok *oauth2.Token) oauth2.TokenSource {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ts == nil {
		a.ts = oauth2.ReuseTokenSource(tok, &refreshSource{
			auth:    a,
			refresh: tok.RefreshToken,
		})
	}
	return a.ts
}

func (a *Auth) resetTokenSource() {
	a.mu.Lock()
	a.ts = nil
	a.mu.Unlock()
}

// refreshSource renews the session with the stored refresh token and
// persists the replacement. oauth2.ReuseTokenSource in front of it makes
// sure this only runs once the access token has actually expired.
type refreshSource struct {
	auth    *Auth
	mu      sync.Mutex
	refresh string
}

func (r *refreshSource) Token() (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), APITimeout)
	defer cancel()

	tok, err := r.auth.tokenRequest(ctx, "session refresh", "refresh_token", map[string]string{
		"refresh_token": r.refresh,
	})
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken != "" {
		r.refresh = tok.RefreshToken
	}
	if err := r.auth.saveToken(tok); err != nil {
		slog.Warn("failed to persist refreshed token", "error", err)
	}
	return tok, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// tokenRequest exchanges credentials for a token at the auth endpoint.
func (a *Auth) tokenRequest(ctx context.Context, op, grant string, body map[string]string) (*oauth2.Token, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.Auth, op, err)
	}

	u := a.project.URL + authTokenPath + "?grant_type=" + grant
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.Auth, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.base.Do(req)
	if err != nil {
		return nil, wrapError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(op, err)
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, apperr.New(apperr.Auth, op, "invalid credentials")
	case resp.StatusCode >= 500:
		return nil, statusError(op, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, apperr.Wrap(apperr.Auth, op, fmt.Errorf("invalid token response: %w", err))
	}
	if tr.AccessToken == "" {
		return nil, apperr.New(apperr.Auth, op, "token response missing access token")
	}

	return &oauth2.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

func (a *Auth) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.cfg.TokenPath())
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.TokenFile, err)
	}
	return &tok, nil
}

// saveToken saves the session token to a file with mode 0600.
func (a *Auth) saveToken(tok *oauth2.Token) error {
	if err := a.cfg.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.cfg.TokenPath(), data, 0600)
}
