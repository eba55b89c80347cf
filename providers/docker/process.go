package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/ruffel/submitjcl/agent"
)

const (
	pollInterval = 100 * time.Millisecond
	pollTimeout  = 30 * time.Second
)

var errProcessClosed = errors.New("process closed")

// Process implements agent.Process for a single exec instance.
type Process struct {
	agent  *Agent
	client *client.Client
	cmd    *agent.Command

	execID string
	stream types.HijackedResponse

	result *agent.Result
	mu     sync.RWMutex
	done   chan struct{}
	closed bool
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}

	return w
}

// copyOutput drains the hijacked stream. TTY sessions are a single raw stream.
func copyOutput(stream types.HijackedResponse, stdout, stderr io.Writer, tty bool) {
	if tty {
		_, _ = io.Copy(writerOrDiscard(stdout), stream.Reader)

		return
	}

	_, _ = stdcopy.StdCopy(writerOrDiscard(stdout), writerOrDiscard(stderr), stream.Reader)
}

// pollForExitCode waits for the daemon to report the exec as finished.
func pollForExitCode(ctx context.Context, cli *client.Client, execID string) (container.ExecInspect, error) {
	pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		inspect, err := cli.ContainerExecInspect(pollCtx, execID)
		if err != nil {
			return inspect, err
		}

		if !inspect.Running {
			return inspect, nil
		}

		select {
		case <-pollCtx.Done():
			return inspect, pollCtx.Err()
		case <-ticker.C:
		}
	}
}

// Wait blocks until the command completes.
func (p *Process) Wait() error {
	p.mu.RLock()

	if p.closed && p.result == nil {
		p.mu.RUnlock()

		return errProcessClosed
	}

	p.mu.RUnlock()

	<-p.done

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result.Error != nil {
		return &agent.TransportError{Command: p.cmd, Err: p.result.Error}
	}

	if p.result.ExitCode != 0 {
		return &agent.ExitError{
			Command:  p.cmd,
			ExitCode: p.result.ExitCode,
		}
	}

	return nil
}

// Result returns a copy of the command result; zero before Wait returns.
func (p *Process) Result() *agent.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result == nil {
		return &agent.Result{}
	}

	return &agent.Result{
		ExitCode: p.result.ExitCode,
		Duration: p.result.Duration,
		Error:    p.result.Error,
	}
}

// Signal terminates the exec session. The Engine API cannot deliver signals
// to exec processes, so every signal hangs up the attached connection.
func (p *Process) Signal(_ os.Signal) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return errProcessClosed
	}

	if p.stream.Conn != nil {
		p.stream.Close()
	}

	return nil
}

// Close disconnects the stream.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	if p.stream.Conn != nil {
		p.stream.Close()
	}

	return nil
}

func (p *Process) start(ctx context.Context) error {
	idResp, err := p.client.ContainerExecCreate(ctx, p.agent.config.ContainerID, buildExecConfig(p.cmd))
	if err != nil {
		return fmt.Errorf("failed to create exec: %w", err)
	}

	p.execID = idResp.ID

	resp, err := p.client.ContainerExecAttach(ctx, p.execID, buildAttachConfig(p.cmd))
	if err != nil {
		return fmt.Errorf("failed to attach exec: %w", err)
	}

	p.stream = resp
	startTime := time.Now()

	if p.cmd.Stdin != nil {
		go func() {
			defer func() { _ = p.stream.CloseWrite() }()

			_, _ = io.Copy(p.stream.Conn, p.cmd.Stdin)
		}()
	}

	outputDone := make(chan struct{})

	go func() {
		defer close(outputDone)

		copyOutput(p.stream, p.cmd.Stdout, p.cmd.Stderr, p.cmd.Tty)
	}()

	go func() {
		defer close(p.done)
		defer p.agent.decrementActive()
		defer p.stream.Close()

		select {
		case <-ctx.Done():
			_ = p.Signal(os.Kill)
			<-outputDone
		case <-outputDone:
		}

		// The caller's context may already be cancelled.
		inspect, err := pollForExitCode(context.Background(), p.client, p.execID) //nolint:contextcheck

		p.mu.Lock()
		p.result = &agent.Result{
			ExitCode: inspect.ExitCode,
			Duration: time.Since(startTime),
			Error:    err,
		}
		p.mu.Unlock()
	}()

	return nil
}
