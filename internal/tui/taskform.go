package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskmaster/internal/facade"
	"taskmaster/internal/task"
)

const (
	formFieldTitle = iota
	formFieldDescription
	formFieldDueDate
	formFieldCategory
	formFieldCount
)

// taskForm collects the mutable task fields, for both creation and
// editing. The category field is a left/right selector rather than free
// text.
type taskForm struct {
	title       textinput.Model
	description textinput.Model
	dueDate     textinput.Model
	category    int
	focus       int

	// editingID is set when the form edits an existing task.
	editingID string
	// hadDueDate remembers whether the edited task had a due date, so
	// clearing the field produces an explicit removal.
	hadDueDate bool
}

func newTaskForm() taskForm {
	title := textinput.New()
	title.Placeholder = "what needs to be done?"
	title.CharLimit = 500
	title.Width = 44
	title.Focus()

	description := textinput.New()
	description.Placeholder = "description (optional)"
	description.CharLimit = 4000
	description.Width = 44

	due := textinput.New()
	due.Placeholder = "due date YYYY-MM-DD (optional)"
	due.CharLimit = 10
	due.Width = 44

	return taskForm{title: title, description: description, dueDate: due}
}

func editTaskForm(t task.Task) taskForm {
	f := newTaskForm()
	f.editingID = t.ID
	f.title.SetValue(t.Title)
	f.description.SetValue(t.Description)
	if t.DueDate != nil {
		f.dueDate.SetValue(t.DueDate.String())
		f.hadDueDate = true
	}
	for i, c := range task.Categories {
		if c == t.Category {
			f.category = i
		}
	}
	return f
}

func (f taskForm) editing() bool { return f.editingID != "" }

func (f taskForm) selectedCategory() task.Category {
	return task.Categories[f.category]
}

// createInput builds the submission for a new task. The error is a
// user-fixable input problem (bad date), reported without touching the
// store.
func (f taskForm) createInput() (facade.CreateInput, error) {
	due, err := f.parseDue()
	if err != nil {
		return facade.CreateInput{}, err
	}
	return facade.CreateInput{
		Title:       f.title.Value(),
		Description: f.description.Value(),
		Category:    f.selectedCategory(),
		DueDate:     due,
	}, nil
}

// updateInput builds the partial edit. All form fields are sent, which
// matches what editing a task means here: the form is the complete
// mutable state.
func (f taskForm) updateInput() (facade.UpdateInput, error) {
	due, err := f.parseDue()
	if err != nil {
		return facade.UpdateInput{}, err
	}
	title := f.title.Value()
	desc := f.description.Value()
	cat := f.selectedCategory()
	in := facade.UpdateInput{
		Title:       &title,
		Description: &desc,
		Category:    &cat,
		DueDate:     due,
	}
	if due == nil && f.hadDueDate {
		in.ClearDueDate = true
	}
	return in, nil
}

func (f taskForm) parseDue() (*task.Date, error) {
	raw := strings.TrimSpace(f.dueDate.Value())
	if raw == "" {
		return nil, nil
	}
	d, err := task.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (f taskForm) Update(msg tea.Msg) (taskForm, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.setFocus((f.focus + 1) % formFieldCount)
			return f, nil
		case "shift+tab", "up":
			f.setFocus((f.focus + formFieldCount - 1) % formFieldCount)
			return f, nil
		case "left":
			if f.focus == formFieldCategory {
				f.category = (f.category + len(task.Categories) - 1) % len(task.Categories)
				return f, nil
			}
		case "right":
			if f.focus == formFieldCategory {
				f.category = (f.category + 1) % len(task.Categories)
				return f, nil
			}
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case formFieldTitle:
		f.title, cmd = f.title.Update(msg)
	case formFieldDescription:
		f.description, cmd = f.description.Update(msg)
	case formFieldDueDate:
		f.dueDate, cmd = f.dueDate.Update(msg)
	}
	return f, cmd
}

func (f *taskForm) setFocus(field int) {
	f.focus = field
	f.title.Blur()
	f.description.Blur()
	f.dueDate.Blur()
	switch field {
	case formFieldTitle:
		f.title.Focus()
	case formFieldDescription:
		f.description.Focus()
	case formFieldDueDate:
		f.dueDate.Focus()
	}
}

func (f taskForm) View(theme Theme) string {
	heading := "New task"
	if f.editing() {
		heading = "Edit task"
	}

	var cats []string
	for i, c := range task.Categories {
		label := string(c)
		if i == f.category {
			label = theme.Selected.Render("[" + label + "]")
		} else {
			label = theme.Subtle.Render(" " + label + " ")
		}
		cats = append(cats, label)
	}
	catLine := "category: " + strings.Join(cats, " ")
	if f.focus == formFieldCategory {
		catLine = theme.Cursor.Render("> ") + catLine
	} else {
		catLine = "  " + catLine
	}

	s := theme.Header.Render(heading) + "\n\n"
	s += f.title.View() + "\n"
	s += f.description.View() + "\n"
	s += f.dueDate.View() + "\n"
	s += catLine + "\n\n"
	s += theme.Subtle.Render("ctrl+s save · esc cancel · tab next field")
	return theme.Box.Render(s)
}
