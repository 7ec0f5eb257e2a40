package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"taskmaster/internal/apperr"
	"taskmaster/internal/backend/supabase"
	"taskmaster/internal/config"
	"taskmaster/internal/exitcode"
	"taskmaster/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd signs in without opening the interactive surface, for
// scripted setups. Email comes from a flag or the first prompt; the
// password is read from stdin either way, so it can be piped.
type LoginCmd struct {
	email string

	// SignIn is replaceable in tests.
	SignIn func(ctx context.Context, cfg *config.Config, project config.Project, email, password string) (*session.Session, error)

	// Stdin overrides os.Stdin in tests.
	Stdin io.Reader
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string  { return "Sign in and store credentials" }
func (c *LoginCmd) Usage() string {
	return "taskmaster login [common flags] [--email <address>]"
}

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, args []string, out, errOut io.Writer) int {
	if !cfg.HasProject() {
		fmt.Fprintf(errOut, "error: no project configured, create %s first\n", cfg.ProjectPath())
		return exitcode.UserError
	}
	project, err := cfg.LoadProject()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	stdin := c.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	reader := bufio.NewReader(stdin)

	email := c.email
	if email == "" {
		fmt.Fprint(out, "email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(errOut, "error: reading email: %v\n", err)
			return exitcode.UserError
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}

	fmt.Fprint(out, "password: ")
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintf(errOut, "error: reading password: %v\n", err)
		return exitcode.UserError
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		fmt.Fprintln(errOut, "error: password required")
		return exitcode.UserError
	}

	signIn := c.SignIn
	if signIn == nil {
		signIn = func(ctx context.Context, cfg *config.Config, project config.Project, email, password string) (*session.Session, error) {
			return supabase.NewAuth(cfg, project).SignIn(ctx, email, password)
		}
	}

	sess, err := signIn(ctx, cfg, project, email, password)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		if apperr.IsAuth(err) {
			return exitcode.AuthError
		}
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "signed in as %s\n", sess.Email)
	}
	return exitcode.Success
}
