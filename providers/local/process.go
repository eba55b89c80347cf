package local

import (
	"os/exec"
	"sync"

	"github.com/ruffel/submitjcl/agent"
)

// Process implements agent.Process for local command execution.
type Process struct {
	agent   *Agent
	cmd     *agent.Command
	execCmd *exec.Cmd

	result *agent.Result
	mu     sync.RWMutex
	done   chan struct{}
	closed bool
}
