// Package main is the submitjcl command line. It submits JCL to a mainframe
// through the Topaz CLI installed on a build agent.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/ruffel/submitjcl/internal/logging"
	"github.com/spf13/cobra"
)

type options struct {
	configPath  string
	workspace   string
	project     string
	connection  string
	credentials string
	maxcc       string
	env         []string
	verbose     bool
	logFile     string

	logCloser io.Closer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, &options{}, os.Args[1:], os.Stdout, os.Stderr)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("❌ "+err.Error()))
		os.Exit(1)
	}
}

// run executes the command line and closes the log file, including when the
// command fails.
func run(ctx context.Context, opts *options, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	defer opts.closeLog()

	return cmd.ExecuteContext(ctx)
}

func (o *options) closeLog() {
	if o.logCloser != nil {
		_ = o.logCloser.Close()
	}
}

func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "submitjcl",
		Short:         "Submit mainframe JCL through the Topaz CLI",
		Long:          `Submits inline JCL or a list of JCL members through SubmitJclCLI on a local, SSH or Docker build agent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			closer, err := logging.ConfigureGlobalLogger(opts.verbose, opts.logFile)
			if err != nil {
				return err
			}

			opts.logCloser = closer
			cmd.SetContext(log.Logger.WithContext(cmd.Context()))

			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "submitjcl.yaml", "Settings file")
	flags.StringVar(&opts.workspace, "workspace", "", "Workspace directory on the agent (default: current directory)")
	flags.StringVar(&opts.project, "project", "", "Project used to scope credential lookup")
	flags.StringVar(&opts.connection, "connection", "", "Host connection id")
	flags.StringVar(&opts.credentials, "credentials", "", "Credentials id")
	flags.StringVar(&opts.maxcc, "maxcc", "4", "Maximum acceptable condition code")
	flags.StringArrayVar(&opts.env, "env", nil, "Extra KEY=VALUE passed to the CLI (repeatable)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.logFile, "log-file", "", "Write JSON debug logs to this file instead of stderr")

	rootCmd.AddCommand(
		newJCLCmd(opts),
		newMembersCmd(opts),
		newCheckCLICmd(opts),
		newCheckAgentCmd(opts),
	)

	return rootCmd
}
