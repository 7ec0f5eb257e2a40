package tui

import (
	"taskmaster/internal/session"
	"taskmaster/internal/viewmodel"
)

// sessionProbedMsg is the result of the startup session probe.
type sessionProbedMsg struct {
	sess *session.Session
	err  error
}

// sessionEventMsg is a transition delivered by the provider's change
// stream: nil means signed out.
type sessionEventMsg struct {
	sess *session.Session
}

// signInResultMsg is the outcome of a sign-in attempt.
type signInResultMsg struct {
	sess *session.Session
	err  error
}

// snapshotMsg carries a list state from the view-model. ok is false once
// the view-model has shut down.
type snapshotMsg struct {
	snap viewmodel.Snapshot
	ok   bool
}

// actionDoneMsg is the outcome of a facade mutation.
type actionDoneMsg struct {
	verb string
	err  error
}

// statsLoadedMsg carries profile statistics.
type statsLoadedMsg struct {
	stats profileStats
	err   error
}

// noticeExpiredMsg clears a transient notice, matched by sequence so a
// newer notice is not clipped by an older timer.
type noticeExpiredMsg struct {
	seq int
}
