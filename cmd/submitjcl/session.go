package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/directory"
	"github.com/ruffel/submitjcl/internal/config"
)

// session holds everything a subcommand needs from the settings file.
type session struct {
	settings  *config.Settings
	directory *directory.Static
	agent     agent.Agent
	workspace string
}

// openSession loads the settings and connects to the agent. Submissions on a
// remote agent need an explicit workspace.
func openSession(ctx context.Context, opts *options, needWorkspace bool) (*session, error) {
	settings, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	dir, err := settings.Directory()
	if err != nil {
		return nil, err
	}

	workspace := opts.workspace
	if workspace == "" {
		if kind := settings.Agent.Kind(); needWorkspace && kind != config.AgentLocal {
			return nil, fmt.Errorf("--workspace is required for %s agents", kind)
		}

		if workspace, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to determine workspace: %w", err)
		}
	}

	ag, err := settings.Agent.Open()
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("config", opts.configPath).
		Str("agent", ag.Platform().String()).
		Str("workspace", workspace).
		Msg("Session opened")

	return &session{
		settings:  settings,
		directory: dir,
		agent:     ag,
		workspace: workspace,
	}, nil
}

func (s *session) Close() {
	_ = s.agent.Close()
}
