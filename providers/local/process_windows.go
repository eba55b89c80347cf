//go:build windows

package local

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/ruffel/submitjcl/agent"
)

// killProcessGroup kills the process tree rooted at pid.
func killProcessGroup(pid int) error {
	return exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run()
}

// setProcessGroup sets the process group for the given command.
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}

	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
}

// batchCommand runs a .bat or .cmd script through cmd.exe with the arguments
// placed on the command line verbatim. Arguments are expected to be quoted for
// batch already; letting os/exec re-quote them would double-escape.
func batchCommand(ctx context.Context, cmd *agent.Command) *exec.Cmd {
	line := `cmd.exe /S /C ""` + cmd.Cmd + `"`
	if len(cmd.Args) > 0 {
		line += " " + strings.Join(cmd.Args, " ")
	}

	line += `"`

	c := exec.CommandContext(ctx, "cmd.exe")
	c.SysProcAttr = &syscall.SysProcAttr{CmdLine: line}

	return c
}
