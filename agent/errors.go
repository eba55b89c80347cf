package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported is returned for features a provider cannot offer, such as a TTY.
	ErrNotSupported = errors.New("operation not supported")

	// ErrAgentClosed is returned by every operation on a closed agent.
	ErrAgentClosed = errors.New("agent is closed")
)

// ExitError reports a command that ran to completion with a non-zero exit
// code. The rendered command never contains masked arguments.
type ExitError struct {
	Command  *Command
	ExitCode int
	// Stderr is only captured by buffered runs.
	Stderr []byte
	Cause  error
}

func (e *ExitError) Error() string {
	if e.Command == nil {
		return fmt.Sprintf("exit code %d", e.ExitCode)
	}

	return fmt.Sprintf("%s: exit code %d", e.Command.String(), e.ExitCode)
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// TransportError reports that the agent itself failed: the SSH session
// dropped, the Docker daemon went away or the script could not be started.
type TransportError struct {
	Command *Command
	Err     error
}

func (e *TransportError) Error() string {
	if e.Command == nil {
		return "agent transport: " + e.Err.Error()
	}

	return fmt.Sprintf("agent transport (%s): %v", e.Command.String(), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit code from an *ExitError anywhere in err's chain.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode, true
	}

	return 0, false
}
