package docker

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/docker/docker/client"
	"github.com/ruffel/submitjcl/agent"
)

var _ agent.Agent = (*Agent)(nil)

// Agent implements agent.Agent for a running container.
type Agent struct {
	config Config
	client *client.Client
	mu     sync.Mutex
	active int
	closed bool
}

// New creates a Docker client for the configured container. The daemon is
// not contacted until the first operation.
func New(c Config) (*Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cli, err := client.NewClientWithOpts(c.ClientOpts()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return &Agent{
		config: c,
		client: cli,
	}, nil
}

// Run executes a command synchronously.
func (a *Agent) Run(ctx context.Context, cmd *agent.Command) (*agent.Result, error) {
	proc, err := a.Start(ctx, cmd)
	if err != nil {
		return nil, err
	}

	defer func() { _ = proc.Close() }()

	waitErr := proc.Wait()

	return proc.Result(), waitErr
}

// Start creates and attaches an exec instance.
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
		agent:  a,
		client: a.client,
		cmd:    cmd,
		done:   make(chan struct{}),
	}

	if err := process.start(ctx); err != nil {
		a.decrementActive()

		return nil, &agent.TransportError{Command: cmd, Err: err}
	}

	return process, nil
}

// Platform returns the operating system of the container.
func (a *Agent) Platform() agent.Platform {
	if a.config.OS == agent.OSUnknown {
		return agent.OSLinux
	}

	return a.config.OS
}

// LookPath resolves file against the PATH inside the container.
func (a *Agent) LookPath(ctx context.Context, file string) (string, error) {
	cmd := agent.NewCommand("sh", "-c", `command -v "$1"`, "sh", file)
	if a.Platform() == agent.OSWindows {
		cmd = agent.OSWindows.ShellCommand("(Get-Command -ErrorAction Stop " + quotePowerShell(file) + ").Source")
	}

	out, err := a.output(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("executable %q not found in container: %w", file, err)
	}

	return strings.TrimSpace(out), nil
}

// Close shuts down the client connection.
func (a *Agent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}

	a.closed = true

	if a.client != nil {
		return a.client.Close()
	}

	return nil
}

// output runs cmd and returns its stdout. Stderr is attached to the error.
func (a *Agent) output(ctx context.Context, cmd *agent.Command) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if _, err := a.Run(ctx, cmd); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}

		return "", err
	}

	return stdout.String(), nil
}

func (a *Agent) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.closed
}

func (a *Agent) decrementActive() {
	a.mu.Lock()
	a.active--
	a.mu.Unlock()
}
