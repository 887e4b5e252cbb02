package nmcli

import "strings"

// ExitCodeNotFound is returned by nmcli when a connection, device or access
// point does not exist.
const ExitCodeNotFound = 10

type CommandError interface {
	error
	CommandWithArgs() []string
	Output() string
	ExitCode() int
}

var _ CommandError = &commandError{}

type commandError struct {
	error
	commandWithArgs []string
	output          string
	exitCode        int
}

func (e *commandError) CommandWithArgs() []string {
	return e.commandWithArgs
}

func (e *commandError) Error() string {
	msg := e.error.Error()
	if out := strings.TrimSpace(e.output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *commandError) Unwrap() error {
	return e.error
}

func (e *commandError) ExitCode() int {
	return e.exitCode
}

func (e *commandError) Output() string {
	return e.output
}
