package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmaster/internal/config"
	"taskmaster/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskmaster help" }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskmaster                       Open the interactive task workspace
  taskmaster login [common flags]  Sign in without opening the workspace
  taskmaster logout [common flags] Remove stored credentials
  taskmaster help
  taskmaster version

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Write debug logs to the log file

Sign-in happens inside the workspace. Keys are listed there under ?.
`
