package agent

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const maxLineLength = 1024 * 1024

// Launcher wraps an Agent with buffered, streaming and file helpers.
// Commands are attempted exactly once.
type Launcher struct {
	agent Agent
}

// NewLauncher creates a new Launcher for the given agent.
func NewLauncher(agent Agent) *Launcher {
	return &Launcher{agent: agent}
}

// Agent returns the wrapped agent.
func (l *Launcher) Agent() Agent {
	return l.agent
}

// Run executes a command once. A non-zero exit is reported as *ExitError.
func (l *Launcher) Run(ctx context.Context, cmd *Command) (*Result, error) {
	res, err := l.agent.Run(ctx, cmd)
	if err != nil {
		return res, err
	}

	if res != nil && res.ExitCode != 0 {
		return res, &ExitError{
			Command:  cmd,
			ExitCode: res.ExitCode,
		}
	}

	return res, nil
}

// RunBuffered executes a command and captures both Stdout and Stderr.
func (l *Launcher) RunBuffered(ctx context.Context, cmd *Command) (*BufferedResult, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmdCopy := *cmd
	cmdCopy.Stdout = &stdoutBuf
	cmdCopy.Stderr = &stderrBuf

	result, err := l.Run(ctx, &cmdCopy)

	bufResult := &BufferedResult{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
	}
	if result != nil {
		bufResult.Result = *result
	}

	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			exitErr.Stderr = bufResult.Stderr
		}
	}

	return bufResult, err
}

// Stream runs cmd and calls onLine for every line written to stdout or stderr.
// onLine is never called concurrently. Command.Stdout and Command.Stderr are
// overridden. The Result is returned even when the exit code is non-zero.
func (l *Launcher) Stream(ctx context.Context, cmd *Command, onLine func(string)) (*Result, error) {
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()

	cmdCopy := *cmd
	cmdCopy.Stdout = outW
	cmdCopy.Stderr = errW

	proc, err := l.agent.Start(ctx, &cmdCopy)
	if err != nil {
		_ = outW.Close()
		_ = errW.Close()

		return nil, err
	}

	defer func() { _ = proc.Close() }()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		scanErr = make([]error, 2)
	)

	scan := func(idx int, r *io.PipeReader) {
		defer wg.Done()
		defer func() { _ = r.Close() }()

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineLength)

		for scanner.Scan() {
			mu.Lock()
			onLine(scanner.Text())
			mu.Unlock()
		}

		if err := scanner.Err(); err != nil {
			scanErr[idx] = err
			// Keep draining so the writer side never blocks.
			_, _ = io.Copy(io.Discard, r)
		}
	}

	wg.Add(2)

	go scan(0, outR)
	go scan(1, errR)

	waitErr := proc.Wait()

	_ = outW.Close()
	_ = errW.Close()

	wg.Wait()

	res := proc.Result()

	if waitErr != nil {
		return res, waitErr
	}

	if err := errors.Join(scanErr...); err != nil {
		return res, fmt.Errorf("scan error: %w", err)
	}

	return res, nil
}

// WriteFile stores data at remotePath on the agent, creating parent directories.
func (l *Launcher) WriteFile(ctx context.Context, remotePath string, data []byte, opts ...FileOption) error {
	tmp, err := os.CreateTemp("", "submitjcl-upload-*")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("failed to write staging file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close staging file: %w", err)
	}

	return l.agent.Upload(ctx, tmp.Name(), remotePath, opts...)
}

// ReadFile returns the content of remotePath on the agent.
func (l *Launcher) ReadFile(ctx context.Context, remotePath string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "submitjcl-download-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	defer func() { _ = os.RemoveAll(dir) }()

	localPath := filepath.Join(dir, "content")

	if err := l.agent.Download(ctx, remotePath, localPath); err != nil {
		return nil, err
	}

	return os.ReadFile(localPath)
}

// LookPath resolves an executable path using the agent's LookPath strategy.
func (l *Launcher) LookPath(ctx context.Context, file string) (string, error) {
	return l.agent.LookPath(ctx, file)
}

// MkdirAll creates path on the agent along with any missing parents.
func (l *Launcher) MkdirAll(ctx context.Context, path string) error {
	return l.agent.MkdirAll(ctx, path)
}

// Remove deletes path on the agent. Missing paths are ignored.
func (l *Launcher) Remove(ctx context.Context, path string) error {
	return l.agent.Remove(ctx, path)
}

// Platform returns the operating system of the underlying agent.
func (l *Launcher) Platform() Platform {
	return l.agent.Platform()
}
