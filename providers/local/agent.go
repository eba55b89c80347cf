package local

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/ruffel/submitjcl/agent"
)

var _ agent.Agent = (*Agent)(nil)

// Agent implements agent.Agent for the local operating system.
// Safe for concurrent use by multiple builds.
type Agent struct {
	platform agent.Platform
	mu       sync.RWMutex
	active   int
	closed   bool
}

// New creates a new local agent.
func New() (*Agent, error) {
	return &Agent{
		platform: agent.DetectLocalPlatform(),
	}, nil
}

// Run executes a command synchronously on the local machine.
func (a *Agent) Run(ctx context.Context, cmd *agent.Command) (*agent.Result, error) {
	process, err := a.Start(ctx, cmd)
	if err != nil {
		return nil, err
	}

	defer func() { _ = process.Close() }()

	waitErr := process.Wait()

	return process.Result(), waitErr
}

// Start begins command execution asynchronously.
// Caller must close/wait on the returned Process.
func (a *Agent) Start(ctx context.Context, cmd *agent.Command) (agent.Process, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	a.mu.Lock()

	if a.closed {
		a.mu.Unlock()

		return nil, fmt.Errorf("cannot start command %q: %w", cmd.String(), agent.ErrAgentClosed)
	}

	a.active++
	a.mu.Unlock()

	process := &Process{
		agent: a,
		cmd:   cmd,
	}

	if err := process.start(ctx); err != nil {
		a.decrementActive()

		return nil, &agent.TransportError{Command: cmd, Err: err}
	}

	return process, nil
}

// Platform returns the operating system of the host machine.
func (a *Agent) Platform() agent.Platform {
	return a.platform
}

// ActiveProcesses returns the number of currently running commands.
func (a *Agent) ActiveProcesses() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.active
}

// Close shuts down the agent.
// New Start calls will fail. Running processes are left to finish.
func (a *Agent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true

	return nil
}

// LookPath searches for an executable named file in the directories named by
// the PATH environment variable.
func (a *Agent) LookPath(_ context.Context, file string) (string, error) {
	if a.isClosed() {
		return "", fmt.Errorf("cannot look up path: %w", agent.ErrAgentClosed)
	}

	return exec.LookPath(file)
}

func (a *Agent) decrementActive() {
	a.mu.Lock()
	a.active--
	a.mu.Unlock()
}

func (a *Agent) isClosed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.closed
}
