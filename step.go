package submitjcl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/cliversion"
	"github.com/ruffel/submitjcl/directory"
)

// CLIWorkspaceDir is the workspace subdirectory holding per-run CLI data.
const CLIWorkspaceDir = "TopazCliWkspc"

const defaultCleanupTimeout = 30 * time.Second

// UnresolvedError reports a connection or credential ID with no match.
type UnresolvedError struct {
	What string
	ID   string
	Err  error
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unable to resolve %s %q: %v", e.What, e.ID, e.Err)
}

func (e *UnresolvedError) Unwrap() error {
	return e.Err
}

// Build is the context of the build running the step.
type Build struct {
	// Project scopes credential lookup.
	Project string
	// Env is passed to the CLI on top of the agent's own environment.
	Env []string
}

// Step submits one Request. The zero values of Gate and Materializer are usable.
type Step struct {
	Request      Request
	Connections  directory.ConnectionDirectory
	Credentials  directory.CredentialStore
	CLI          directory.CLILocator
	Gate         cliversion.Gate
	Materializer Materializer

	// CleanupTimeout bounds each deferred cleanup. Defaults to 30s.
	CleanupTimeout time.Duration
}

// Perform runs the step on ag, writing the build log to log. Cleanup of the
// temporary JCL file and the CLI data directory happens on every path,
// including cancellation, and never changes the outcome.
func (s *Step) Perform(ctx context.Context, b Build, workspace string, ag agent.Agent, log io.Writer) error {
	if log == nil {
		log = io.Discard
	}

	if err := s.Request.Validate(); err != nil {
		return err
	}

	if workspace == "" {
		return &ConfigurationError{Problems: []string{"workspace is required"}}
	}

	logger := zerolog.Ctx(ctx).With().
		Str("connection", s.Request.ConnectionID).
		Str("payload", s.Request.Kind.String()).
		Logger()

	l := agent.NewLauncher(ag)
	p := l.Platform()

	cliDir, err := s.CLI.TopazCLILocation(p)
	if err != nil {
		return err
	}

	installed, err := s.Gate.Check(ctx, l, cliDir)
	if err != nil {
		return err
	}

	logger.Debug().Str("cliVersion", installed).Str("agent", p.String()).Msg("Topaz CLI accepted")

	conn, err := s.Connections.HostConnection(s.Request.ConnectionID)
	if err != nil {
		return &UnresolvedError{What: "host connection", ID: s.Request.ConnectionID, Err: err}
	}

	cred, err := s.Credentials.LoginInformation(b.Project, s.Request.CredentialsID)
	if err != nil {
		return &UnresolvedError{What: "credentials", ID: s.Request.CredentialsID, Err: err}
	}

	if err := ValidateCredential(cred); err != nil {
		return err
	}

	script := ScriptName(p)
	cliScriptFile := p.Join(cliDir, script)
	workDir := p.Join(workspace, CLIWorkspaceDir, s.Materializer.id())

	_, _ = fmt.Fprintf(log, "cliScriptFile: %s\n", cliScriptFile)
	_, _ = fmt.Fprintf(log, "cliScriptFileRemote: %s\n", cliScriptFile)
	_, _ = fmt.Fprintf(log, "topazCliWorkspace: %s\n", workDir)

	if s.Request.Kind == InlineJCL && !LooksLikeJCL(s.Request.Text) {
		logger.Warn().Msg("Inline JCL does not start with a // statement")
	}

	if s.Request.Kind == MemberList {
		for m, err := range UnusualMembers(s.Request.Text) {
			logger.Warn().Err(err).Str("member", m).Msg("JCL member is not a recognizable data set name")
		}
	}

	payload, err := s.Materializer.Materialize(ctx, l, workspace, s.Request)
	if err != nil {
		return err
	}

	defer s.cleanup(ctx, log, logger, func(ctx context.Context) error {
		return payload.Release(ctx, l)
	})

	defer s.cleanup(ctx, log, logger, func(ctx context.Context) error {
		if err := l.Remove(ctx, workDir); err != nil {
			return fmt.Errorf("failed to delete CLI data directory %s: %w", workDir, err)
		}

		return nil
	})

	args := NewAssembler(p).Assemble(Invocation{
		Script:           cliScriptFile,
		Connection:       conn,
		Credential:       cred,
		WorkDir:          workDir,
		MaxConditionCode: s.Request.MaxConditionCode,
		Payload:          payload,
	})

	if payload.Kind == MemberList {
		_, _ = fmt.Fprintf(log, "jclMember: %s\n", args[len(args)-1].Value)
	}

	_, _ = fmt.Fprintf(log, "\n$ %s\n", args.String())

	code, err := Invoker{Launcher: l, Log: log}.Invoke(ctx, Launch{Args: args, Env: b.Env, Dir: workspace})
	if err != nil {
		return err
	}

	err = Translate(script, code, log)

	var abort *AbortError
	if errors.As(err, &abort) {
		logger.Error().Int("exitCode", code).Msg("Topaz CLI reported a failure")
	}

	return err
}

// cleanup runs fn detached from ctx cancellation. Failures are logged only.
func (s *Step) cleanup(ctx context.Context, log io.Writer, logger zerolog.Logger, fn func(context.Context) error) {
	timeout := s.CleanupTimeout
	if timeout <= 0 {
		timeout = defaultCleanupTimeout
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := fn(cctx); err != nil {
		logger.Warn().Err(err).Msg("Cleanup failed")

		_, _ = fmt.Fprintf(log, "Warning: %v\n", err)
	}
}
