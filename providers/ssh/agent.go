package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ruffel/submitjcl/agent"
	"golang.org/x/crypto/ssh"
	sshagent "golang.org/x/crypto/ssh/agent"
)

var _ agent.Agent = (*Agent)(nil)

// Agent implements agent.Agent over an SSH connection.
type Agent struct {
	config Config
	client *ssh.Client
	mu     sync.Mutex
	active int
	closed bool
}

// loadPrivateKeyAuth loads a private key from a file.
// Returns nil if the path is empty.
func loadPrivateKeyAuth(keyPath string) (ssh.AuthMethod, error) {
	if keyPath == "" {
		return nil, nil //nolint:nilnil // no key configured
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key file: %w", err)
	}

	return ssh.PublicKeys(signer), nil
}

// loadAgentAuth returns nil if useAgent is false or SSH_AUTH_SOCK is unusable.
func loadAgentAuth(useAgent bool) ssh.AuthMethod {
	if !useAgent {
		return nil
	}

	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := (&net.Dialer{Timeout: 500 * time.Millisecond}).DialContext(context.Background(), "unix", socket)
	if err != nil {
		return nil
	}

	signers, err := sshagent.NewClient(conn).Signers()
	if err != nil {
		return nil
	}

	return ssh.PublicKeys(signers...)
}

// New dials the agent described by c.
func New(c Config) (*Agent, error) {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	clientConfig, err := c.ToClientConfig()
	if err != nil {
		return nil, err
	}

	keyAuth, err := loadPrivateKeyAuth(c.PrivateKeyPath)
	if err != nil {
		return nil, err
	}

	if keyAuth != nil {
		clientConfig.Auth = append(clientConfig.Auth, keyAuth)
	}

	if agentAuth := loadAgentAuth(c.UseAgent); agentAuth != nil {
		clientConfig.Auth = append(clientConfig.Auth, agentAuth)
	}

	addr := net.JoinHostPort(c.Host, fmt.Sprint(c.Port))

	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ssh at %s: %w", addr, err)
	}

	return NewFromClient(client, c), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *ssh.Client, config Config) *Agent {
	return &Agent{
		config: config.WithDefaults(),
		client: client,
	}
}

// Run executes a command synchronously on the remote server.
func (a *Agent) Run(ctx context.Context, cmd *agent.Command) (*agent.Result, error) {
	proc, err := a.Start(ctx, cmd)
	if err != nil {
		return nil, err
	}

	defer func() { _ = proc.Close() }()

	waitErr := proc.Wait()

	return proc.Result(), waitErr
}

// Start opens a new SSH session for the command.
func (a *Agent) Start(ctx context.Context, cmd *agent.Command) (agent.Process, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	client, err := a.acquire()
	if err != nil {
		return nil, fmt.Errorf("cannot start command %q: %w", cmd.String(), err)
	}

	session, err := client.NewSession()
	if err != nil {
		a.decrementActive()

		return nil, &agent.TransportError{Command: cmd, Err: fmt.Errorf("failed to create ssh session: %w", err)}
	}

	process := &Process{
		agent:   a,
		session: session,
		cmd:     cmd,
		done:    make(chan struct{}),
	}

	if err := process.start(ctx); err != nil {
		_ = session.Close()

		a.decrementActive()

		return nil, &agent.TransportError{Command: cmd, Err: err}
	}

	return process, nil
}

// LookPath resolves file with the remote shell's command lookup.
func (a *Agent) LookPath(ctx context.Context, file string) (string, error) {
	script := "command -v " + quotePosix(file)
	if a.config.OS == agent.OSWindows {
		script = "(Get-Command -ErrorAction Stop " + quotePowerShell(file) + ").Source"
	}

	res, err := agent.NewLauncher(a).RunBuffered(ctx, a.config.OS.ShellCommand(script))
	if err != nil {
		return "", fmt.Errorf("executable %q not found on %s: %w", file, a.config.Host, err)
	}

	path := strings.TrimSpace(string(res.Stdout))
	if path == "" {
		return "", fmt.Errorf("executable %q not found on %s", file, a.config.Host)
	}

	return path, nil
}

// Platform returns the operating system as configured.
func (a *Agent) Platform() agent.Platform {
	return a.config.OS
}

// Close closes the underlying SSH connection.
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

// acquire registers a new in-flight operation.
func (a *Agent) acquire() (*ssh.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, agent.ErrAgentClosed
	}

	a.active++

	return a.client, nil
}

func (a *Agent) decrementActive() {
	a.mu.Lock()
	a.active--
	a.mu.Unlock()
}
