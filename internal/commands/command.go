// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"taskmaster/internal/config"
)

// Command defines the interface for CLI commands. Task management
// itself happens in the interactive surface; commands cover the
// lifecycle around it (credentials, version, help).
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command. args contains positional arguments
	// after flag parsing. Returns exit code.
	Run(ctx context.Context, cfg *config.Config, args []string, out, errOut io.Writer) int
}
