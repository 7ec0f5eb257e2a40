package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskmaster/internal/commands"
	"taskmaster/internal/config"
	"taskmaster/internal/exitcode"
)

// UIRunner launches the interactive surface. Injected so tests can
// dispatch without a terminal.
type UIRunner func(ctx context.Context, cfg *config.Config) int

// Dispatcher handles command-line parsing and dispatch. Running with
// no subcommand opens the interactive workspace.
type Dispatcher struct {
	registry *commands.Registry
	ui       UIRunner
}

// NewDispatcher creates a new dispatcher with the given registry and
// UI runner.
func NewDispatcher(registry *commands.Registry, ui UIRunner) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		ui:       ui,
	}
}

// Run parses arguments and dispatches. Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No subcommand, or only flags: open the workspace.
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return d.runUI(ctx, args, errOut)
	}

	cmd, ok := d.registry.Find(args[0])
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) runUI(ctx context.Context, args []string, errOut io.Writer) int {
	fs := flag.NewFlagSet("taskmaster", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, code := parseCommon(fs, args, errOut)
	if cfg == nil {
		return code
	}
	if len(fs.Args()) > 0 {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", fs.Args()[0])
		return exitcode.UserError
	}
	return d.ui(ctx, cfg)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)

	cfg, code := parseCommon(fs, args, errOut)
	if cfg == nil {
		return code
	}

	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return exitcode.UserError
	}

	return cmd.Run(ctx, cfg, positional, out, errOut)
}

// parseCommon registers the shared flags, parses, and builds the
// config. A nil config means parsing failed and the returned code
// should be used.
func parseCommon(fs *flag.FlagSet, args []string, errOut io.Writer) (*config.Config, int) {
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	if err := fs.Parse(args); err != nil {
		errStr := err.Error()
		switch {
		case strings.Contains(errStr, "flag needs an argument"):
			flagPart := strings.TrimSpace(strings.Split(errStr, ":")[0])
			flagPart = strings.TrimPrefix(flagPart, "flag ")
			fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagPart)
		case strings.HasPrefix(errStr, "flag provided but not defined:"):
			flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
			fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		default:
			fmt.Fprintf(errOut, "error: %s\n", errStr)
		}
		return nil, exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return nil, exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug
	return cfg, exitcode.Success
}
