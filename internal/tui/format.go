package tui

import (
	"strings"

	"taskmaster/internal/task"
)

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// formatDue renders a due date as "Jan 2".
func formatDue(d *task.Date) string {
	if d == nil {
		return ""
	}
	return d.Format("Jan 2")
}

// checkbox renders the completion marker.
func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// truncate shortens s to at most w runes, ellipsized.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(runes[:w-1]) + "…"
}
