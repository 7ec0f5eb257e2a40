// Package exitcode defines process exit codes.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, missing TTY, bad input).
	UserError = 1

	// AuthError indicates an auth or credentials error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)
