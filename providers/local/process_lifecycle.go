package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ruffel/submitjcl/agent"
)

// waitDelay bounds how long Wait blocks on output pipes held open by
// grandchildren after the script itself has exited or been killed.
const waitDelay = 5 * time.Second

// Close releases resources associated with the process.
// If the process is still running, its whole process group is killed.
func (p *Process) Close() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return nil
	}

	shouldKill := p.execCmd != nil && p.execCmd.Process != nil && p.done != nil
	done := p.done
	p.closed = true
	p.mu.Unlock()

	// Kill and wait outside of lock to avoid deadlock
	if shouldKill {
		select {
		case <-done:
		default:
			if p.execCmd.Process.Pid > 0 {
				_ = killProcessGroup(p.execCmd.Process.Pid)
			}

			<-done
		}
	}

	return nil
}

func (p *Process) start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("cannot start process %q: already closed", p.cmd.String())
	}

	if p.cmd.Tty {
		return fmt.Errorf("cannot start process %q: %w", p.cmd.String(), agent.ErrNotSupported)
	}

	p.execCmd = buildExecCmd(ctx, p.cmd)

	if p.cmd.Dir != "" {
		p.execCmd.Dir = p.cmd.Dir
	}

	if len(p.cmd.Env) > 0 {
		p.execCmd.Env = append(os.Environ(), p.cmd.Env...)
	}

	// A fresh process group lets cancellation reach everything the script spawns.
	setProcessGroup(p.execCmd)

	p.execCmd.Cancel = func() error {
		return killProcessGroup(p.execCmd.Process.Pid)
	}
	p.execCmd.WaitDelay = waitDelay

	// Nil streams inherit the parent's stdio.
	if p.cmd.Stdout != nil {
		p.execCmd.Stdout = p.cmd.Stdout
	}

	if p.cmd.Stderr != nil {
		p.execCmd.Stderr = p.cmd.Stderr
	}

	if p.cmd.Stdin != nil {
		p.execCmd.Stdin = p.cmd.Stdin
	}

	p.done = make(chan struct{})

	startTime := time.Now()

	if err := p.execCmd.Start(); err != nil {
		return err
	}

	go func() {
		defer close(p.done)
		defer p.agent.decrementActive()

		err := p.execCmd.Wait()
		duration := time.Since(startTime)

		exitCode := 0
		if p.execCmd.ProcessState != nil {
			exitCode = p.execCmd.ProcessState.ExitCode()
		}

		p.mu.Lock()
		p.result = &agent.Result{
			ExitCode: exitCode,
			Duration: duration,
			Error:    err,
		}
		p.mu.Unlock()
	}()

	return nil
}

func buildExecCmd(ctx context.Context, cmd *agent.Command) *exec.Cmd {
	if isBatchScript(cmd.Cmd) {
		return batchCommand(ctx, cmd)
	}

	return exec.CommandContext(ctx, cmd.Cmd, cmd.Args...)
}
