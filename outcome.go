package submitjcl

import (
	"errors"
	"fmt"
	"io"
)

// ErrNonZeroExit matches every *AbortError.
var ErrNonZeroExit = errors.New("CLI exited with a non-zero value")

// AbortError fails the build step after the CLI reported a problem.
type AbortError struct {
	Script   string
	ExitCode int
}

func (e *AbortError) Error() string {
	return exitLine(e.Script, e.ExitCode)
}

func (e *AbortError) Is(target error) bool {
	return target == ErrNonZeroExit
}

func exitLine(script string, code int) string {
	return fmt.Sprintf("Call %s exited with value = %d", script, code)
}

// Translate maps the CLI exit code to the step outcome. Success is logged;
// any other code becomes an *AbortError.
func Translate(script string, code int, log io.Writer) error {
	if code != 0 {
		return &AbortError{Script: script, ExitCode: code}
	}

	if log != nil {
		_, _ = fmt.Fprintln(log, exitLine(script, code))
	}

	return nil
}
