package nmcli

import (
	"context"
	"io"
	"os/exec"
)

type Cmd interface {
	Output() ([]byte, error)
	SetStderr(io.Writer)
	SetEnv([]string)
}

// overridable for testing purposes
var ExecCommandContext = func(ctx context.Context, name string, arg ...string) Cmd {
	return (*execCmd)(exec.CommandContext(ctx, name, arg...))
}

// dummy decorator to isolate from [exec.Cmd] struct fields
type execCmd exec.Cmd

var _ Cmd = &execCmd{}

func (r *execCmd) Output() ([]byte, error) { return (*exec.Cmd)(r).Output() }
func (r *execCmd) SetStderr(w io.Writer)   { (*exec.Cmd)(r).Stderr = w }
func (r *execCmd) SetEnv(env []string)     { (*exec.Cmd)(r).Env = env }

// helper to isolate from [exec.ExitError]
func errToExitCode(err error) int {
	type exitCode interface{ ExitCode() int }

	if errWithExitCode, ok := err.(exitCode); ok {
		return errWithExitCode.ExitCode()
	}

	return 0
}
