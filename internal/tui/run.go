package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"taskmaster/internal/backend/supabase"
	"taskmaster/internal/config"
	"taskmaster/internal/exitcode"
)

// Run wires the backend to the interactive surface and blocks until
// the user quits or the context is cancelled. It returns a process
// exit code.
func Run(ctx context.Context, cfg *config.Config) int {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "taskmaster needs an interactive terminal")
		return exitcode.UserError
	}

	if !cfg.HasProject() {
		fmt.Fprintf(os.Stderr, `No project is configured.

Create %s with your backend's URL and anon key:

  {
    "url": "https://your-project.supabase.co",
    "api_key": "your-anon-key"
  }
`, cfg.ProjectPath())
		return exitcode.UserError
	}

	project, err := cfg.LoadProject()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitcode.UserError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitcode.UserError
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitcode.UserError
	}
	defer closeLog()

	sessions := supabase.NewAuth(cfg, project)
	store := supabase.NewStore(project, sessions)
	app := NewApp(ctx, cfg, sessions, store)

	prog := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil {
		if ctx.Err() != nil {
			return exitcode.Success
		}
		slog.Error("interactive session failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

// setupLogging sends slog output to the config dir's log file so it
// never fights the alternate screen for the terminal.
func setupLogging(cfg *config.Config) (func(), error) {
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return func() { f.Close() }, nil
}
