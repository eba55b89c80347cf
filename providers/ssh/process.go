package ssh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ruffel/submitjcl/agent"
	"golang.org/x/crypto/ssh"
)

// exitCodeUnknown is reported when the session ends without an exit status.
const exitCodeUnknown = 255

// Process implements agent.Process for SSH execution.
type Process struct {
	agent   *Agent
	session *ssh.Session
	cmd     *agent.Command

	result *agent.Result
	mu     sync.RWMutex
	done   chan struct{}
	closed bool
}

// Wait blocks until the command completes.
func (p *Process) Wait() error {
	p.mu.RLock()

	if p.closed {
		p.mu.RUnlock()

		return fmt.Errorf("cannot wait on process %q: already closed", p.cmd.String())
	}

	p.mu.RUnlock()

	<-p.done

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result.Error == nil {
		return nil
	}

	exitErr := &ssh.ExitError{}
	if errors.As(p.result.Error, &exitErr) {
		return &agent.ExitError{
			Command:  p.cmd,
			ExitCode: exitErr.ExitStatus(),
			Cause:    p.result.Error,
		}
	}

	return &agent.TransportError{Command: p.cmd, Err: p.result.Error}
}

// Result returns the command execution result.
func (p *Process) Result() *agent.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result == nil {
		return &agent.Result{}
	}

	res := *p.result

	return &res
}

// Signal sends a signal to the remote process.
func (p *Process) Signal(sig os.Signal) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed || p.session == nil {
		return errors.New("process closed or not started")
	}

	var sshSig ssh.Signal

	switch sig {
	case os.Interrupt:
		sshSig = ssh.SIGINT
	case os.Kill:
		sshSig = ssh.SIGKILL
	default:
		return fmt.Errorf("signal %v not supported over ssh: %w", sig, agent.ErrNotSupported)
	}

	return p.session.Signal(sshSig)
}

// Close terminates the SSH session.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	if p.session != nil {
		_ = p.session.Close()
	}

	return nil
}

func (p *Process) start(ctx context.Context) error {
	if p.cmd.Stdout != nil {
		p.session.Stdout = p.cmd.Stdout
	}

	if p.cmd.Stderr != nil {
		p.session.Stderr = p.cmd.Stderr
	}

	if p.cmd.Stdin != nil {
		p.session.Stdin = p.cmd.Stdin
	}

	if p.cmd.Tty {
		if err := p.session.RequestPty("xterm", 80, 40, buildTerminalModes()); err != nil {
			return fmt.Errorf("request for pty failed: %w", err)
		}
	}

	startTime := time.Now()

	if err := p.session.Start(buildFullCommand(p.cmd, p.agent.Platform())); err != nil {
		return err
	}

	go func() {
		defer close(p.done)
		defer p.agent.decrementActive()

		finished := make(chan struct{})

		go func() {
			select {
			case <-ctx.Done():
				_ = p.Signal(os.Kill)
				_ = p.Close()
			case <-finished:
			}
		}()

		err := p.session.Wait()

		close(finished)

		exitCode := 0

		if err != nil {
			exitErr := &ssh.ExitError{}
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitStatus()
			} else {
				exitCode = exitCodeUnknown
			}
		}

		if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}

		p.mu.Lock()
		p.result = &agent.Result{
			ExitCode: exitCode,
			Duration: time.Since(startTime),
			Error:    err,
		}
		p.mu.Unlock()
	}()

	return nil
}
