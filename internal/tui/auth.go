package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskmaster/internal/apperr"
	"taskmaster/internal/session"
)

// authModel is the sign-in surface: email and password inputs. It is the
// only thing rendered while no session exists.
type authModel struct {
	email      textinput.Model
	password   textinput.Model
	focus      int
	submitting bool
	notice     string
}

func newAuthModel() authModel {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Width = 38
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 128
	password.Width = 38

	return authModel{email: email, password: password}
}

func signInCmd(ctx context.Context, sessions session.Provider, email, password string) tea.Cmd {
	return func() tea.Msg {
		sess, err := sessions.SignIn(ctx, email, password)
		return signInResultMsg{sess: sess, err: err}
	}
}

func (m authModel) Update(ctx context.Context, sessions session.Provider, msg tea.Msg) (authModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signInResultMsg:
		m.submitting = false
		if msg.err != nil {
			if apperr.IsAuth(msg.err) {
				m.notice = "invalid email or password"
			} else {
				m.notice = "sign-in failed, try again"
			}
			m.password.SetValue("")
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % 2
			if m.focus == 0 {
				m.email.Focus()
				m.password.Blur()
			} else {
				m.password.Focus()
				m.email.Blur()
			}
			return m, nil
		case "enter":
			if m.focus == 0 {
				m.focus = 1
				m.email.Blur()
				m.password.Focus()
				return m, nil
			}
			if m.email.Value() == "" || m.password.Value() == "" {
				m.notice = "enter email and password"
				return m, nil
			}
			m.notice = ""
			m.submitting = true
			return m, signInCmd(ctx, sessions, m.email.Value(), m.password.Value())
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m authModel) View(theme Theme) string {
	s := theme.Title.Render("TaskMaster") + "\n"
	s += theme.Subtle.Render("Sign in to manage your tasks") + "\n\n"
	s += m.email.View() + "\n"
	s += m.password.View() + "\n\n"
	switch {
	case m.submitting:
		s += theme.Subtle.Render("signing in...")
	case m.notice != "":
		s += theme.ErrText.Render(m.notice)
	default:
		s += theme.Subtle.Render("enter to sign in · ctrl+c to quit")
	}
	return theme.Box.Render(s)
}
