package ssh

import (
	"fmt"
	"strings"

	"github.com/ruffel/submitjcl/agent"
	"golang.org/x/crypto/ssh"
)

// quotePosix wraps s in single quotes for a POSIX shell.
func quotePosix(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// quotePowerShell wraps s in a PowerShell literal string.
func quotePowerShell(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// buildEnvPrefix exports cmd.Env in the remote shell. OpenSSH defaults to
// PermitUserEnvironment=no, so session.Setenv cannot be relied on.
func buildEnvPrefix(envVars []string, p agent.Platform) string {
	var b strings.Builder

	for _, env := range envVars {
		k, v, found := strings.Cut(env, "=")
		if !found {
			continue
		}

		if p == agent.OSWindows {
			fmt.Fprintf(&b, "$env:%s=%s; ", k, quotePowerShell(v))
		} else {
			fmt.Fprintf(&b, "export %s=%s; ", k, quotePosix(v))
		}
	}

	return b.String()
}

// buildDirPrefix changes into dir before the command runs.
func buildDirPrefix(dir string, p agent.Platform) string {
	if dir == "" {
		return ""
	}

	if p == agent.OSWindows {
		return "Set-Location -LiteralPath " + quotePowerShell(dir) + "; "
	}

	return "cd " + quotePosix(dir) + " && "
}

// buildCommandLine renders cmd so the remote shell passes every argument
// through as a single word, unchanged.
func buildCommandLine(cmd *agent.Command, p agent.Platform) string {
	quote := quotePosix
	prefix, suffix := "", ""

	if p == agent.OSWindows {
		quote = quotePowerShell
		prefix, suffix = "& ", "; exit $LASTEXITCODE"
	}

	parts := make([]string, 0, len(cmd.Args)+1)
	parts = append(parts, quote(cmd.Cmd))

	for _, arg := range cmd.Args {
		parts = append(parts, quote(arg))
	}

	return prefix + strings.Join(parts, " ") + suffix
}

// buildTerminalModes returns the default terminal modes for a PTY.
func buildTerminalModes() ssh.TerminalModes {
	return ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
}

// buildFullCommand combines environment, working directory and the command itself.
func buildFullCommand(cmd *agent.Command, p agent.Platform) string {
	return buildEnvPrefix(cmd.Env, p) + buildDirPrefix(cmd.Dir, p) + buildCommandLine(cmd, p)
}
