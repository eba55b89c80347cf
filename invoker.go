package submitjcl

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ruffel/submitjcl/agent"
)

// Entry scripts shipped with the Topaz CLI.
const (
	ScriptUnix    = "SubmitJclCLI.sh"
	ScriptWindows = "SubmitJclCLI.bat"
)

// ScriptName returns the entry script for the agent platform.
func ScriptName(p agent.Platform) string {
	if p == agent.OSWindows {
		return ScriptWindows
	}

	return ScriptUnix
}

// LaunchError reports that the CLI could not be started or lost its transport.
type LaunchError struct {
	Script string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to run %s: %v", e.Script, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Launch describes one CLI run.
type Launch struct {
	Args Arguments
	// Env is appended to the environment the agent process inherits.
	Env []string
	// Dir is the working directory. It is created if missing.
	Dir string
}

// Invoker runs the CLI and copies its output into Log.
type Invoker struct {
	Launcher *agent.Launcher
	Log      io.Writer
}

// Invoke blocks until the CLI exits and returns its exit code. A non-zero
// exit is not an error here.
func (i Invoker) Invoke(ctx context.Context, l Launch) (int, error) {
	cmd := l.Args.Command()
	cmd.Env = l.Env
	cmd.Dir = l.Dir

	script := cmd.Cmd

	if l.Dir != "" {
		if err := i.Launcher.MkdirAll(ctx, l.Dir); err != nil {
			return -1, &LaunchError{Script: script, Err: fmt.Errorf("failed to create working directory %s: %w", l.Dir, err)}
		}
	}

	log := i.Log
	if log == nil {
		log = io.Discard
	}

	redact := newRedactor(l.Args.Secrets())

	res, err := i.Launcher.Stream(ctx, cmd, func(line string) {
		_, _ = io.WriteString(log, redact.Replace(line)+"\n")
	})

	if err != nil && ctx.Err() != nil {
		return -1, fmt.Errorf("%s interrupted: %w", script, ctx.Err())
	}

	if code, ok := agent.ExitCode(err); ok {
		return code, nil
	}

	if err != nil {
		return -1, &LaunchError{Script: script, Err: err}
	}

	return res.ExitCode, nil
}

// newRedactor replaces each secret with agent.Mask, longest first so a
// quoted secret is masked as a whole.
func newRedactor(secrets []string) *strings.Replacer {
	sorted := append([]string(nil), secrets...)
	sort.Slice(sorted, func(a, b int) bool { return len(sorted[a]) > len(sorted[b]) })

	pairs := make([]string, 0, 2*len(sorted))
	for _, s := range sorted {
		pairs = append(pairs, s, agent.Mask)
	}

	return strings.NewReplacer(pairs...)
}
