package tui

import (
	"github.com/charmbracelet/lipgloss"

	"taskmaster/internal/task"
)

// Theme is the set of styles for one display mode. The dark/light choice
// is the persisted display preference, so palettes are explicit rather
// than terminal-adaptive.
type Theme struct {
	Dark bool

	Title    lipgloss.Style
	Header   lipgloss.Style
	Subtle   lipgloss.Style
	Cursor   lipgloss.Style
	Done     lipgloss.Style
	Notice   lipgloss.Style
	ErrText  lipgloss.Style
	Selected lipgloss.Style
	Input    lipgloss.Style
	Box      lipgloss.Style

	categories map[task.Category]lipgloss.Style
}

// NewTheme builds the style set for the given display mode.
func NewTheme(dark bool) Theme {
	var (
		fg      = lipgloss.Color("235")
		subtle  = lipgloss.Color("245")
		accent  = lipgloss.Color("32")
		good    = lipgloss.Color("28")
		bad     = lipgloss.Color("124")
		border  = lipgloss.Color("250")
		catPers = lipgloss.Color("32")
		catWork = lipgloss.Color("91")
		catShop = lipgloss.Color("136")
		catHeal = lipgloss.Color("28")
	)
	if dark {
		fg = lipgloss.Color("252")
		subtle = lipgloss.Color("243")
		accent = lipgloss.Color("39")
		good = lipgloss.Color("40")
		bad = lipgloss.Color("203")
		border = lipgloss.Color("240")
		catPers = lipgloss.Color("39")
		catWork = lipgloss.Color("135")
		catShop = lipgloss.Color("214")
		catHeal = lipgloss.Color("40")
	}

	badge := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}

	return Theme{
		Dark:     dark,
		Title:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		Header:   lipgloss.NewStyle().Foreground(fg).Bold(true),
		Subtle:   lipgloss.NewStyle().Foreground(subtle),
		Cursor:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		Done:     lipgloss.NewStyle().Foreground(subtle).Strikethrough(true),
		Notice:   lipgloss.NewStyle().Foreground(good),
		ErrText:  lipgloss.NewStyle().Foreground(bad),
		Selected: lipgloss.NewStyle().Foreground(accent),
		Input:    lipgloss.NewStyle().Foreground(fg),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		categories: map[task.Category]lipgloss.Style{
			task.CategoryPersonal: badge(catPers),
			task.CategoryWork:     badge(catWork),
			task.CategoryShopping: badge(catShop),
			task.CategoryHealth:   badge(catHeal),
		},
	}
}

// CategoryBadge renders a category label in its accent color.
func (t Theme) CategoryBadge(c task.Category) string {
	style, ok := t.categories[c]
	if !ok {
		return string(c)
	}
	return style.Render(string(c))
}
