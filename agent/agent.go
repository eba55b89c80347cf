// Package agent describes the build agent a submission runs on.
//
// # Core Interfaces
//
// - Agent: the connection to a build agent (Local, SSH, Docker).
// - Process: a running command handle (allows Wait, Signal, Close).
//
// # Paths
//
// Every path handed to an Agent is agent-native. Use Platform.Join and
// Platform.Separator to build them; the controller's own path rules do not
// apply to a remote Windows agent.
//
// # Streaming
//
// Output is not buffered by default. Attach an io.Writer to Command.Stdout, or
// use Launcher.Stream to receive output line by line.
package agent

import (
	"context"
	"io"
	"os"
)

// Agent abstracts the machine where the external CLI is launched (e.g., Local, SSH, Docker).
type Agent interface {
	io.Closer

	// Run executes a command synchronously.
	// A non-zero exit is reported as *ExitError alongside the Result.
	Run(ctx context.Context, cmd *Command) (*Result, error)

	// Start initiates a command asynchronously.
	// The caller must release the returned Process via Wait() or Close().
	Start(ctx context.Context, cmd *Command) (Process, error)

	// Platform returns the operating system of the agent, not of the controller.
	Platform() Platform

	// Upload copies a local file or directory to the agent.
	//
	// It creates any missing parent directories at the destination.
	Upload(ctx context.Context, localPath, remotePath string, opts ...FileOption) error

	// Download copies a file or directory from the agent to the local destination.
	//
	// It creates any missing parent directories at the local destination.
	Download(ctx context.Context, remotePath, localPath string, opts ...FileOption) error

	// MkdirAll creates a directory on the agent along with any missing parents.
	MkdirAll(ctx context.Context, path string) error

	// Remove deletes a file or directory tree on the agent.
	// A path that does not exist is not an error.
	Remove(ctx context.Context, path string) error

	// LookPath searches for an executable named file in the agent's PATH.
	LookPath(ctx context.Context, file string) (string, error)
}

// Process represents a command that has been started but not yet completed.
type Process interface {
	io.Closer

	// Wait blocks until the process exits.
	// Returns *ExitError if the exit code is non-zero.
	Wait() error

	// Result returns the exit code and duration (only valid after Wait).
	Result() *Result

	// Signal sends an OS signal to the process.
	// Support for specific signals depends on the provider.
	Signal(sig os.Signal) error
}
