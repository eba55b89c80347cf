//go:build !windows

package local

import (
	"context"
	"os/exec"
	"syscall"

	"github.com/ruffel/submitjcl/agent"
)

// killProcessGroup kills the process group with the given PID.
func killProcessGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}

// setProcessGroup sets the process group for the given command.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// batchCommand has nothing to translate on Unix; batch files are passed through
// and fail to exec like any other non-executable.
func batchCommand(ctx context.Context, cmd *agent.Command) *exec.Cmd {
	return exec.CommandContext(ctx, cmd.Cmd, cmd.Args...)
}
