package mock

import (
	"context"
	"io"
	"os"

	"github.com/ruffel/submitjcl/agent"
	"github.com/stretchr/testify/mock"
)

// Agent implements a mock agent.Agent using testify/mock.
type Agent struct {
	mock.Mock
}

var _ agent.Agent = (*Agent)(nil)

// New creates a new mock agent.
func New() *Agent {
	return &Agent{}
}

// Upload mocks copying a file to the agent.
func (m *Agent) Upload(ctx context.Context, localPath, remotePath string, opts ...agent.FileOption) error {
	// testify cannot match variadic arguments individually.
	args := m.Called(ctx, localPath, remotePath, opts)

	return args.Error(0)
}

// Download mocks copying a file from the agent.
func (m *Agent) Download(ctx context.Context, remotePath, localPath string, opts ...agent.FileOption) error {
	args := m.Called(ctx, remotePath, localPath, opts)

	return args.Error(0)
}

// MkdirAll mocks directory creation on the agent.
func (m *Agent) MkdirAll(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

// Remove mocks deleting a path on the agent.
func (m *Agent) Remove(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

// LookPath mocks executable resolution.
func (m *Agent) LookPath(ctx context.Context, file string) (string, error) {
	args := m.Called(ctx, file)

	return args.String(0), args.Error(1)
}

// Run mocks running a command to completion.
func (m *Agent) Run(ctx context.Context, cmd *agent.Command) (*agent.Result, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*agent.Result), args.Error(1)
}

// Start mocks starting a command asynchronously.
func (m *Agent) Start(ctx context.Context, cmd *agent.Command) (agent.Process, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(agent.Process), args.Error(1)
}

// Platform mocks returning the agent operating system.
func (m *Agent) Platform() agent.Platform {
	return m.Called().Get(0).(agent.Platform)
}

// Close mocks closing the agent.
func (m *Agent) Close() error {
	return m.Called().Error(0)
}

// Process implements a mock agent.Process using testify/mock.
type Process struct {
	mock.Mock
}

var _ agent.Process = (*Process)(nil)

// Wait mocks waiting for the process to complete.
func (m *Process) Wait() error {
	return m.Called().Error(0)
}

// Result mocks returning the process result.
func (m *Process) Result() *agent.Result {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(*agent.Result)
}

// Signal mocks sending a signal to the process.
func (m *Process) Signal(sig os.Signal) error {
	return m.Called(sig).Error(0)
}

// Close mocks closing the process.
func (m *Process) Close() error {
	return m.Called().Error(0)
}

// WriteOutput simulates a process writing content to w.
// Usage: proc.On("Wait").Run(WriteOutput(cmd.Stdout, "output")).Return(nil).
func WriteOutput(w io.Writer, content string) func(mock.Arguments) {
	return func(mock.Arguments) {
		if w != nil {
			_, _ = io.WriteString(w, content)
		}
	}
}

// CaptureUpload stores the content of the uploaded local file in dst.
// Usage: m.On("Upload", ...).Run(CaptureUpload(&body)).Return(nil).
func CaptureUpload(dst *[]byte) func(mock.Arguments) {
	return func(args mock.Arguments) {
		data, err := os.ReadFile(args.String(1))
		if err == nil {
			*dst = data
		}
	}
}

// ServeDownload writes content to the local destination of a Download call.
func ServeDownload(content []byte) func(mock.Arguments) {
	return func(args mock.Arguments) {
		_ = os.WriteFile(args.String(2), content, 0o600)
	}
}
