package docker

import (
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/ruffel/submitjcl/agent"
)

// buildExecConfig translates an agent.Command to container.ExecOptions.
// Arguments go to the daemon as an argv array and are never re-parsed by a shell.
func buildExecConfig(cmd *agent.Command) container.ExecOptions {
	return container.ExecOptions{
		Cmd:          append([]string{cmd.Cmd}, cmd.Args...),
		Env:          cmd.Env,
		WorkingDir:   cmd.Dir,
		AttachStdout: true,
		AttachStderr: true,
		AttachStdin:  cmd.Stdin != nil,
		Tty:          cmd.Tty,
	}
}

func buildAttachConfig(cmd *agent.Command) container.ExecStartOptions {
	return container.ExecStartOptions{
		Tty: cmd.Tty,
	}
}

func quotePowerShell(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// mkdirCommand creates dir and its parents inside the container.
func mkdirCommand(p agent.Platform, dir string) *agent.Command {
	if p == agent.OSWindows {
		return p.ShellCommand("New-Item -ItemType Directory -Force -Path " + quotePowerShell(dir) + " | Out-Null")
	}

	return agent.NewCommand("mkdir", "-p", "--", dir)
}

// removeCommand deletes target recursively. A missing target succeeds.
func removeCommand(p agent.Platform, target string) *agent.Command {
	if p == agent.OSWindows {
		return p.ShellCommand("if (Test-Path -LiteralPath " + quotePowerShell(target) + ") { Remove-Item -LiteralPath " +
			quotePowerShell(target) + " -Recurse -Force }")
	}

	return agent.NewCommand("rm", "-rf", "--", target)
}

// splitContainerPath returns the extraction root and the root-relative path
// used as the tar entry name, letting the daemon create missing parents.
func splitContainerPath(p agent.Platform, remotePath string) (string, string) {
	remotePath = strings.ReplaceAll(remotePath, `\`, "/")

	if p != agent.OSWindows {
		return "/", strings.TrimPrefix(remotePath, "/")
	}

	if len(remotePath) >= 3 && remotePath[1] == ':' && remotePath[2] == '/' {
		return remotePath[:3], remotePath[3:]
	}

	return "C:/", strings.TrimPrefix(remotePath, "/")
}
