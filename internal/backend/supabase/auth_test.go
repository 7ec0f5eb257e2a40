package supabase_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"taskmaster/internal/apperr"
	"taskmaster/internal/backend/supabase"
	"taskmaster/internal/config"
)

func fakeJWT(t *testing.T, sub, email string) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256"}`))
	payload, err := json.Marshal(map[string]any{"sub": sub, "email": email})
	if err != nil {
		t.Fatal(err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

type authServer struct {
	t           *testing.T
	jwt         string
	tokenCalls  int
	logoutCalls int
	lastGrant   string
	lastBody    map[string]string
	failStatus  int
}

func (a *authServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") == "" {
			a.t.Error("request missing apikey header")
		}
		switch r.URL.Path {
		case "/auth/v1/token":
			a.tokenCalls++
			a.lastGrant = r.URL.Query().Get("grant_type")
			a.lastBody = map[string]string{}
			json.NewDecoder(r.Body).Decode(&a.lastBody)
			if a.failStatus != 0 {
				w.WriteHeader(a.failStatus)
				return
			}
			fmt.Fprintf(w, `{"access_token": %q, "refresh_token": "refresh-1", "expires_in": 3600}`, a.jwt)
		case "/auth/v1/logout":
			a.logoutCalls++
			w.WriteHeader(http.StatusNoContent)
		default:
			a.t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newAuth(t *testing.T) (*supabase.Auth, *authServer, *config.Config) {
	t.Helper()
	as := &authServer{t: t, jwt: fakeJWT(t, "user-1", "ada@example.com")}
	srv := httptest.NewServer(as.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{Dir: t.TempDir()}
	auth := supabase.NewAuth(cfg, config.Project{URL: srv.URL, APIKey: "anon"})
	return auth, as, cfg
}

func writeTokenFile(t *testing.T, cfg *config.Config, tok oauth2.Token) {
	t.Helper()
	data, err := json.Marshal(tok)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.TokenPath(), data, 0600); err != nil {
		t.Fatal(err)
	}
}

func TestSignIn(t *testing.T) {
	auth, as, cfg := newAuth(t)

	sess, err := auth.SignIn(context.Background(), "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.UserID != "user-1" || sess.Email != "ada@example.com" {
		t.Errorf("session = %+v", sess)
	}
	if as.lastGrant != "password" {
		t.Errorf("grant = %q, want password", as.lastGrant)
	}
	if as.lastBody["email"] != "ada@example.com" || as.lastBody["password"] != "hunter2" {
		t.Errorf("credentials body = %v", as.lastBody)
	}

	// Token is persisted, owner-readable only.
	info, err := os.Stat(cfg.TokenPath())
	if err != nil {
		t.Fatalf("token file: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	// The transition is pushed to listeners.
	select {
	case got := <-auth.Changes():
		if got == nil || got.UserID != "user-1" {
			t.Errorf("change event = %+v", got)
		}
	default:
		t.Error("no session change emitted")
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	auth, as, cfg := newAuth(t)
	as.failStatus = http.StatusBadRequest

	_, err := auth.SignIn(context.Background(), "ada@example.com", "wrong")
	if !apperr.IsAuth(err) {
		t.Fatalf("want auth error, got %v", err)
	}
	if cfg.HasToken() {
		t.Error("failed sign-in must not persist a token")
	}
}

func TestCurrentWithoutToken(t *testing.T) {
	auth, _, _ := newAuth(t)

	sess, err := auth.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sess != nil {
		t.Errorf("expected signed out, got %+v", sess)
	}
}

func TestCurrentWithFreshToken(t *testing.T) {
	auth, as, cfg := newAuth(t)
	writeTokenFile(t, cfg, oauth2.Token{
		AccessToken:  fakeJWT(t, "user-1", "ada@example.com"),
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	})

	sess, err := auth.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sess == nil || sess.UserID != "user-1" {
		t.Fatalf("session = %+v", sess)
	}
	if as.tokenCalls != 0 {
		t.Errorf("fresh token triggered %d refresh calls, want 0", as.tokenCalls)
	}
}

func TestCurrentRefreshesExpiredToken(t *testing.T) {
	auth, as, cfg := newAuth(t)
	writeTokenFile(t, cfg, oauth2.Token{
		AccessToken:  fakeJWT(t, "user-1", "ada@example.com"),
		RefreshToken: "refresh-old",
		Expiry:       time.Now().Add(-time.Hour),
	})

	sess, err := auth.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sess == nil || sess.UserID != "user-1" {
		t.Fatalf("session = %+v", sess)
	}
	if as.lastGrant != "refresh_token" || as.lastBody["refresh_token"] != "refresh-old" {
		t.Errorf("refresh request: grant=%q body=%v", as.lastGrant, as.lastBody)
	}

	// The renewed token replaced the stored one.
	data, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		t.Fatalf("token file: %v", err)
	}
	var stored oauth2.Token
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.RefreshToken != "refresh-1" {
		t.Errorf("stored refresh token = %q, want renewed refresh-1", stored.RefreshToken)
	}
}

func TestCurrentFailedRefreshSignsOut(t *testing.T) {
	auth, as, cfg := newAuth(t)
	as.failStatus = http.StatusBadRequest
	writeTokenFile(t, cfg, oauth2.Token{
		AccessToken:  fakeJWT(t, "user-1", "ada@example.com"),
		RefreshToken: "refresh-dead",
		Expiry:       time.Now().Add(-time.Hour),
	})

	sess, err := auth.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sess != nil {
		t.Errorf("unrenewable token should read as signed out, got %+v", sess)
	}
	if cfg.HasToken() {
		t.Error("dead token should be removed")
	}
}

func TestSignOut(t *testing.T) {
	auth, as, cfg := newAuth(t)
	writeTokenFile(t, cfg, oauth2.Token{
		AccessToken:  fakeJWT(t, "user-1", "ada@example.com"),
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	})

	if err := auth.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if cfg.HasToken() {
		t.Error("token file still present after sign out")
	}
	if as.logoutCalls != 1 {
		t.Errorf("logout endpoint called %d times, want 1", as.logoutCalls)
	}

	select {
	case got := <-auth.Changes():
		if got != nil {
			t.Errorf("expected nil session event, got %+v", got)
		}
	default:
		t.Error("no sign-out event emitted")
	}
}

func TestSignOutWhenSignedOut(t *testing.T) {
	auth, _, _ := newAuth(t)
	if err := auth.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut with no token: %v", err)
	}
}

func TestClientWithoutToken(t *testing.T) {
	auth, _, _ := newAuth(t)
	_, err := auth.Client(context.Background())
	if !apperr.IsAuth(err) {
		t.Errorf("want auth error, got %v", err)
	}
}
