package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"taskmaster/internal/apperr"
	"taskmaster/internal/facade"
	"taskmaster/internal/session"
	"taskmaster/internal/store"
	"taskmaster/internal/task"
	"taskmaster/internal/viewmodel"
)

// noticeTTL is how long a transient notice stays on screen.
const noticeTTL = 3 * time.Second

type wsMode int

const (
	modeList wsMode = iota
	modeCreate
	modeEdit
	modeProfile
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Filter  key.Binding
	Sort    key.Binding
	Order   key.Binding
	Profile key.Binding
	Dark    key.Binding
	SignOut key.Binding
	Quit    key.Binding
	Help    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle done")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Sort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort key")),
		Order:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort order")),
		Profile: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "profile")),
		Dark:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "dark mode")),
		SignOut: key.NewBinding(key.WithKeys("Q"), key.WithHelp("Q", "sign out")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Edit, k.Delete, k.Filter, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Add, k.Edit},
		{k.Delete, k.Filter, k.Sort, k.Order},
		{k.Profile, k.Dark, k.SignOut, k.Quit},
	}
}

type notice struct {
	text  string
	isErr bool
}

type profileStats struct {
	Total     int
	Completed int
	Pending   int
}

// workspaceModel is the authenticated surface: the task list, the
// create/edit forms, and the profile view. It owns the view-model for
// the session and closes it on teardown.
type workspaceModel struct {
	ctx     context.Context
	vm      *viewmodel.ViewModel
	actions *facade.Facade
	store   store.Store
	sess    session.Session

	mode     wsMode
	criteria task.Criteria
	tasks    []task.Task
	cursor   int
	loading  bool
	form     taskForm

	notice    notice
	noticeSeq int

	stats        profileStats
	statsLoading bool

	keys   keyMap
	help   help.Model
	width  int
	height int
}

func newWorkspace(ctx context.Context, vm *viewmodel.ViewModel, actions *facade.Facade, st store.Store, sess session.Session) *workspaceModel {
	return &workspaceModel{
		ctx:      ctx,
		vm:       vm,
		actions:  actions,
		store:    st,
		sess:     sess,
		criteria: task.DefaultCriteria(),
		loading:  true,
		keys:     newKeyMap(),
		help:     help.New(),
	}
}

func (m *workspaceModel) Init() tea.Cmd {
	return waitSnapshot(m.vm)
}

// close releases the session's view-model and its change subscription.
func (m *workspaceModel) close() {
	_ = m.vm.Close()
}

func waitSnapshot(vm *viewmodel.ViewModel) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-vm.Snapshots()
		return snapshotMsg{snap: snap, ok: ok}
	}
}

func mutateCmd(ctx context.Context, verb string, run func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{verb: verb, err: run(ctx)}
	}
}

func loadStatsCmd(ctx context.Context, st store.Store, ownerID string) tea.Cmd {
	return func() tea.Msg {
		all, err := st.Query(ctx, ownerID, task.Criteria{
			Scope:         task.ScopeAll,
			SortKey:       task.SortCreatedAt,
			SortDirection: task.Descending,
		})
		if err != nil {
			return statsLoadedMsg{err: err}
		}
		stats := profileStats{Total: len(all)}
		for _, t := range all {
			if t.IsCompleted {
				stats.Completed++
			}
		}
		stats.Pending = stats.Total - stats.Completed
		return statsLoadedMsg{stats: stats}
	}
}

func (m *workspaceModel) Update(msg tea.Msg) (*workspaceModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		if !msg.ok {
			return m, nil
		}
		m.loading = false
		m.tasks = msg.snap.Tasks
		if m.cursor >= len(m.tasks) {
			m.cursor = len(m.tasks) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		var notify tea.Cmd
		if msg.snap.Err != nil {
			notify = m.setNotice("couldn't load tasks, will retry on next change", true)
		}
		return m, tea.Batch(waitSnapshot(m.vm), notify)

	case actionDoneMsg:
		if msg.err != nil {
			return m, m.setNotice(actionErrorText(msg.err), true)
		}
		return m, m.setNotice("task "+msg.verb, false)

	case statsLoadedMsg:
		m.statsLoading = false
		if msg.err != nil {
			return m, m.setNotice("couldn't load profile stats", true)
		}
		m.stats = msg.stats
		return m, nil

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = notice{}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *workspaceModel) handleKey(msg tea.KeyMsg) (*workspaceModel, tea.Cmd) {
	switch m.mode {
	case modeCreate, modeEdit:
		return m.handleFormKey(msg)
	case modeProfile:
		switch msg.String() {
		case "esc", "p", "b", "q":
			m.mode = modeList
		}
		return m, nil
	}
	return m.handleListKey(msg)
}

func (m *workspaceModel) handleFormKey(msg tea.KeyMsg) (*workspaceModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		return m, nil

	case "ctrl+s":
		if m.mode == modeEdit {
			in, err := m.form.updateInput()
			if err != nil {
				return m, m.setNotice(err.Error(), true)
			}
			id := m.form.editingID
			m.mode = modeList
			return m, mutateCmd(m.ctx, "updated", func(ctx context.Context) error {
				return m.actions.Update(ctx, id, in)
			})
		}
		in, err := m.form.createInput()
		if err != nil {
			return m, m.setNotice(err.Error(), true)
		}
		m.mode = modeList
		return m, mutateCmd(m.ctx, "created", func(ctx context.Context) error {
			return m.actions.Create(ctx, in)
		})
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m *workspaceModel) handleListKey(msg tea.KeyMsg) (*workspaceModel, tea.Cmd) {
	keys := m.keys
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, keys.Add):
		m.mode = modeCreate
		m.form = newTaskForm()
		return m, nil

	case key.Matches(msg, keys.Edit):
		if t, ok := m.selected(); ok {
			m.mode = modeEdit
			m.form = editTaskForm(t)
		}
		return m, nil

	case key.Matches(msg, keys.Toggle):
		if t, ok := m.selected(); ok {
			id, current := t.ID, t.IsCompleted
			return m, mutateCmd(m.ctx, "toggled", func(ctx context.Context) error {
				return m.actions.ToggleComplete(ctx, id, current)
			})
		}
		return m, nil

	case key.Matches(msg, keys.Delete):
		if t, ok := m.selected(); ok {
			id := t.ID
			return m, mutateCmd(m.ctx, "deleted", func(ctx context.Context) error {
				return m.actions.Delete(ctx, id)
			})
		}
		return m, nil

	case key.Matches(msg, keys.Filter):
		return m, m.applyCriteria(m.criteria.NextScope())

	case key.Matches(msg, keys.Sort):
		return m, m.applyCriteria(m.criteria.NextSortKey())

	case key.Matches(msg, keys.Order):
		return m, m.applyCriteria(m.criteria.FlipDirection())

	case key.Matches(msg, keys.Profile):
		m.mode = modeProfile
		m.statsLoading = true
		return m, loadStatsCmd(m.ctx, m.store, m.sess.UserID)

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

// applyCriteria requests a reload; the list keeps showing the previous
// state until the snapshot for the new criteria lands.
func (m *workspaceModel) applyCriteria(c task.Criteria) tea.Cmd {
	m.criteria = c
	m.loading = true
	m.vm.SetCriteria(c)
	return nil
}

func (m *workspaceModel) selected() (task.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return task.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *workspaceModel) setNotice(text string, isErr bool) tea.Cmd {
	m.noticeSeq++
	m.notice = notice{text: text, isErr: isErr}
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func actionErrorText(err error) string {
	switch apperr.ClassOf(err) {
	case apperr.Validation:
		return err.Error()
	case apperr.NotFound:
		return "that task is already gone"
	case apperr.Auth:
		return "session expired, sign in again"
	default:
		return "something went wrong, try again"
	}
}

func (m *workspaceModel) View(theme Theme) string {
	switch m.mode {
	case modeCreate, modeEdit:
		return m.form.View(theme)
	case modeProfile:
		return m.profileView(theme)
	}
	return m.listView(theme)
}

func (m *workspaceModel) listView(theme Theme) string {
	var b strings.Builder

	b.WriteString(theme.Title.Render("TaskMaster"))
	b.WriteString(theme.Subtle.Render("  " + m.sess.Email))
	b.WriteString("\n")
	b.WriteString(theme.Subtle.Render(fmt.Sprintf(
		"filter: %s · sort: %s %s", m.criteria.Scope, m.criteria.SortKey, m.criteria.SortDirection)))
	if m.loading {
		b.WriteString(theme.Subtle.Render(" · loading..."))
	}
	b.WriteString("\n\n")

	if len(m.tasks) == 0 && !m.loading {
		b.WriteString(theme.Subtle.Render("no tasks · press a to add one"))
		b.WriteString("\n")
	}

	titleWidth := m.width - 30
	if titleWidth < 20 {
		titleWidth = 20
	}
	for i, t := range m.tasks {
		cursor := "  "
		if i == m.cursor {
			cursor = theme.Cursor.Render("> ")
		}
		title := truncate(normalizeTitle(t.Title), titleWidth)
		line := checkbox(t.IsCompleted) + " " + title
		if t.IsCompleted {
			line = theme.Done.Render(line)
		}
		b.WriteString(cursor + line + "  " + theme.CategoryBadge(t.Category))
		if due := formatDue(t.DueDate); due != "" {
			b.WriteString(theme.Subtle.Render("  due " + due))
		}
		b.WriteString("\n")
		if i == m.cursor && t.Description != "" {
			b.WriteString("      " + theme.Subtle.Render(truncate(t.Description, titleWidth)) + "\n")
		}
	}

	b.WriteString("\n")
	if m.notice.text != "" {
		if m.notice.isErr {
			b.WriteString(theme.ErrText.Render(m.notice.text))
		} else {
			b.WriteString(theme.Notice.Render(m.notice.text))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *workspaceModel) profileView(theme Theme) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Profile"))
	b.WriteString("\n\n")
	b.WriteString(theme.Header.Render(m.sess.Email))
	b.WriteString("\n\n")
	if m.statsLoading {
		b.WriteString(theme.Subtle.Render("loading stats..."))
	} else {
		b.WriteString(fmt.Sprintf("total tasks      %d\n", m.stats.Total))
		b.WriteString(fmt.Sprintf("completed        %d\n", m.stats.Completed))
		b.WriteString(fmt.Sprintf("pending          %d\n", m.stats.Pending))
	}
	b.WriteString("\n")
	b.WriteString(theme.Subtle.Render("esc to go back"))
	return theme.Box.Render(b.String())
}
