package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"taskmaster/internal/apperr"
	"taskmaster/internal/config"
	"taskmaster/internal/facade"
	"taskmaster/internal/session"
	"taskmaster/internal/store"
	"taskmaster/internal/task"
	"taskmaster/internal/viewmodel"
)

type gateState int

const (
	gateProbing gateState = iota
	gateSignedOut
	gateSignedIn
)

// App is the root model. It gates the workspace behind the session:
// while probing it shows a spinner, without a session the sign-in
// surface, and with one the task workspace. Session events from the
// provider drive transitions in both directions.
type App struct {
	ctx      context.Context
	cfg      *config.Config
	sessions session.Provider
	store    store.Store
	actions  *facade.Facade

	gate  gateState
	theme Theme
	dark  bool

	spin spinner.Model
	auth authModel
	ws   *workspaceModel

	width  int
	height int
}

func NewApp(ctx context.Context, cfg *config.Config, sessions session.Provider, st store.Store) *App {
	dark := cfg.LoadPrefs().DarkMode
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &App{
		ctx:      ctx,
		cfg:      cfg,
		sessions: sessions,
		store:    st,
		actions:  facade.New(st, sessions),
		gate:     gateProbing,
		theme:    NewTheme(dark),
		dark:     dark,
		spin:     sp,
		auth:     newAuthModel(),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.probeCmd(), a.watchSessionCmd())
}

// probeCmd resolves the persisted session, refreshing the token if it
// can. A failed probe lands on the sign-in surface, never an error.
func (a *App) probeCmd() tea.Cmd {
	return func() tea.Msg {
		sess, err := a.sessions.Current(a.ctx)
		return sessionProbedMsg{sess: sess, err: err}
	}
}

// watchSessionCmd waits for one session event and re-arms on delivery.
func (a *App) watchSessionCmd() tea.Cmd {
	return func() tea.Msg {
		sess, ok := <-a.sessions.Changes()
		if !ok {
			return nil
		}
		return sessionEventMsg{sess: sess}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.ws != nil {
			a.ws, _ = a.ws.Update(msg)
		}
		return a, nil

	case spinner.TickMsg:
		if a.gate != gateProbing {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case sessionProbedMsg:
		if msg.err != nil {
			slog.Warn("session probe failed", "error", msg.err)
		}
		if msg.sess == nil {
			a.gate = gateSignedOut
			return a, nil
		}
		return a, a.enterWorkspace(msg.sess)

	case sessionEventMsg:
		return a, tea.Batch(a.handleSessionEvent(msg.sess), a.watchSessionCmd())

	case signInResultMsg:
		if msg.err == nil && msg.sess != nil && a.gate == gateSignedOut {
			a.auth = newAuthModel()
			return a, a.enterWorkspace(msg.sess)
		}
		var cmd tea.Cmd
		a.auth, cmd = a.auth.Update(a.ctx, a.sessions, msg)
		return a, cmd

	case actionDoneMsg:
		// An expired session surfaces through a failed mutation. Tear
		// the workspace down and go back to the gate.
		if apperr.IsAuth(msg.err) {
			a.teardown()
			a.gate = gateSignedOut
			a.auth = newAuthModel()
			a.auth.notice = "session expired, sign in again"
			return a, nil
		}
		if a.ws == nil {
			return a, nil
		}
		var cmd tea.Cmd
		a.ws, cmd = a.ws.Update(msg)
		return a, cmd

	case snapshotMsg, statsLoadedMsg, noticeExpiredMsg:
		// Snapshots racing a sign-out arrive after teardown; drop them.
		if a.ws == nil {
			return a, nil
		}
		var cmd tea.Cmd
		a.ws, cmd = a.ws.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		a.teardown()
		return a, tea.Quit
	case "ctrl+t":
		a.dark = !a.dark
		a.theme = NewTheme(a.dark)
		if err := a.cfg.SavePrefs(config.Prefs{DarkMode: a.dark}); err != nil {
			slog.Warn("saving display preference failed", "error", err)
		}
		return a, nil
	}

	switch a.gate {
	case gateSignedOut:
		var cmd tea.Cmd
		a.auth, cmd = a.auth.Update(a.ctx, a.sessions, msg)
		return a, cmd

	case gateSignedIn:
		if a.ws != nil && a.ws.mode == modeList {
			switch {
			case key.Matches(msg, a.ws.keys.SignOut):
				return a, a.signOutCmd()
			case msg.String() == "q":
				a.teardown()
				return a, tea.Quit
			}
		}
		var cmd tea.Cmd
		a.ws, cmd = a.ws.Update(msg)
		return a, cmd
	}
	return a, nil
}

// handleSessionEvent reacts to provider pushes: nil tears the
// workspace down, a new identity swaps it out wholesale.
func (a *App) handleSessionEvent(sess *session.Session) tea.Cmd {
	if sess == nil {
		a.teardown()
		a.gate = gateSignedOut
		a.auth = newAuthModel()
		return nil
	}
	if a.gate == gateSignedIn && a.ws != nil && a.ws.sess.UserID == sess.UserID {
		a.ws.sess = *sess
		return nil
	}
	a.teardown()
	return a.enterWorkspace(sess)
}

// enterWorkspace builds and starts the view-model for the signed-in
// user and swaps in the workspace surface.
func (a *App) enterWorkspace(sess *session.Session) tea.Cmd {
	vm := viewmodel.New(a.store, sess.UserID, task.DefaultCriteria())
	if err := vm.Start(a.ctx); err != nil {
		slog.Error("starting task sync failed", "error", err, "user_id", sess.UserID)
		a.gate = gateSignedOut
		a.auth = newAuthModel()
		a.auth.notice = "couldn't connect, sign in again"
		return nil
	}
	a.gate = gateSignedIn
	a.ws = newWorkspace(a.ctx, vm, a.actions, a.store, *sess)
	ws := a.ws
	return tea.Batch(ws.Init(), func() tea.Msg {
		size := tea.WindowSizeMsg{Width: a.width, Height: a.height}
		return size
	})
}

func (a *App) signOutCmd() tea.Cmd {
	return func() tea.Msg {
		if err := a.sessions.SignOut(a.ctx); err != nil {
			slog.Warn("sign out failed", "error", err)
		}
		return nil
	}
}

// teardown closes the workspace view-model, if any. Safe to call twice.
func (a *App) teardown() {
	if a.ws != nil {
		a.ws.close()
		a.ws = nil
	}
}

func (a *App) View() string {
	switch a.gate {
	case gateProbing:
		return "\n  " + a.spin.View() + " checking session...\n"
	case gateSignedOut:
		return a.auth.View(a.theme)
	}
	if a.ws == nil {
		return ""
	}
	return a.ws.View(a.theme)
}
