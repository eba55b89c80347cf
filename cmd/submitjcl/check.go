package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ruffel/submitjcl/agent"
	"github.com/spf13/cobra"
)

func newCheckCLICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check-cli",
		Short: "Verify the Topaz CLI installed on the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx, opts, false)
			if err != nil {
				return err
			}
			defer s.Close()

			l := agent.NewLauncher(s.agent)

			cliDir, err := s.directory.TopazCLILocation(l.Platform())
			if err != nil {
				return err
			}

			installed, err := s.settings.Gate().Check(ctx, l, cliDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Topaz CLI %s found in %s (%s agent)", installed, cliDir, l.Platform())))
			fmt.Fprintln(out, checkStyle.Render("✅ CLI version accepted"))

			return nil
		},
	}
}

func newCheckAgentCmd(opts *options) *cobra.Command {
	var compareLocal bool

	cmd := &cobra.Command{
		Use:   "check-agent",
		Short: "Run the agent contract suite against the configured build agent",
		Long: `Runs the provider contract suite against the agent from the settings file.
The suite closes the agent at the end, so run it on its own.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, titleStyle.Render("🔍 Build Agent Contract Check"))

			s, err := openSession(ctx, opts, false)
			if err != nil {
				return err
			}
			defer s.Close()

			agents := map[string]agent.Agent{s.settings.Agent.Kind(): s.agent}

			if compareLocal {
				if err := addLocal(agents); err != nil {
					return err
				}

				defer func() { _ = agents["local"].Close() }()
			}

			names := sortedNames(agents)

			sp := spinner.New(spinner.CharSets[11], 100*time.Millisecond,
				spinner.WithWriter(cmd.ErrOrStderr()),
				spinner.WithHiddenCursor(true))
			sp.Suffix = " Running contracts on " + strings.Join(names, ", ")
			sp.Start()

			matrix := runMatrix(ctx, agents)

			sp.Stop()

			if failures := renderMatrix(out, names, matrix); failures > 0 {
				return fmt.Errorf("%d contract(s) failed", failures)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&compareLocal, "compare-local", false, "Also run the suite on this machine for comparison")

	return cmd
}

func addLocal(agents map[string]agent.Agent) error {
	if _, ok := agents["local"]; ok {
		return errors.New("the configured agent is already local")
	}

	l, err := openLocal()
	if err != nil {
		return fmt.Errorf("local agent failed: %w", err)
	}

	agents["local"] = l

	return nil
}
