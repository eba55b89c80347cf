package local

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ruffel/submitjcl/agent"
)

// Wait blocks until the command completes.
// It returns an agent.ExitError if the command finished with a non-zero exit code,
// or a different error if the wait itself failed (e.g. context cancellation).
func (p *Process) Wait() error {
	p.mu.RLock()

	if p.closed {
		p.mu.RUnlock()

		return fmt.Errorf("cannot wait on process %q: already closed", p.cmd.String())
	}

	if p.done == nil {
		p.mu.RUnlock()

		return fmt.Errorf("cannot wait on process %q: not started", p.cmd.String())
	}

	p.mu.RUnlock()

	<-p.done

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result.Error == nil {
		return nil
	}

	exitErr := &exec.ExitError{}
	if errors.As(p.result.Error, &exitErr) && exitErr.ExitCode() >= 0 {
		return &agent.ExitError{
			Command:  p.cmd,
			ExitCode: exitErr.ExitCode(),
			Cause:    p.result.Error,
		}
	}

	return p.result.Error
}

// Result returns the final metadata of the command execution.
// It returns an empty result if the process is still running or hasn't started.
func (p *Process) Result() *agent.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result == nil {
		return &agent.Result{}
	}

	res := *p.result

	return &res
}

// Signal sends an OS signal to the running process.
func (p *Process) Signal(sig os.Signal) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return fmt.Errorf("cannot signal process %q: already closed", p.cmd.String())
	}

	if p.execCmd == nil || p.execCmd.Process == nil {
		return fmt.Errorf("cannot signal process %q: not started", p.cmd.String())
	}

	return p.execCmd.Process.Signal(sig)
}

func isBatchScript(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".bat", ".cmd":
		return true
	default:
		return false
	}
}
