package agenttest

import (
	"errors"

	"github.com/ruffel/submitjcl/agent"
	"github.com/stretchr/testify/require"
)

const (
	runExitErrorCode    = 13
	waitExitErrorCode   = 23
	streamExitErrorCode = 12
)

func errorContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryErrors,
			Name:        "run-nonzero-returns-exiterror",
			Description: "Run non-zero failures must return *agent.ExitError",
			Run: func(t T, ag agent.Agent) {
				_, err := ag.Run(t.Context(), ag.Platform().ShellCommand(exitScript(runExitErrorCode)))

				var exitErr *agent.ExitError
				require.ErrorAs(t, err, &exitErr)
				require.Equal(t, runExitErrorCode, exitErr.ExitCode)
			},
		},
		{
			Category:    CategoryErrors,
			Name:        "start-wait-nonzero-returns-exiterror",
			Description: "Wait non-zero failures must return *agent.ExitError",
			Run: func(t T, ag agent.Agent) {
				process, err := ag.Start(t.Context(), ag.Platform().ShellCommand(exitScript(waitExitErrorCode)))
				require.NoError(t, err)
				require.NotNil(t, process)

				defer func() { _ = process.Close() }()

				var exitErr *agent.ExitError
				require.ErrorAs(t, process.Wait(), &exitErr)
				require.Equal(t, waitExitErrorCode, exitErr.ExitCode)
				require.Equal(t, waitExitErrorCode, process.Result().ExitCode)
			},
		},
		{
			Category:    CategoryErrors,
			Name:        "stream-nonzero-keeps-result",
			Description: "Stream returns the exit code alongside *agent.ExitError",
			Run: func(t T, ag agent.Agent) {
				res, err := agent.NewLauncher(ag).Stream(t.Context(),
					ag.Platform().ShellCommand(exitScript(streamExitErrorCode)), func(string) {})

				var exitErr *agent.ExitError
				require.ErrorAs(t, err, &exitErr)
				require.NotNil(t, res)
				require.Equal(t, streamExitErrorCode, res.ExitCode)
			},
		},
		{
			Category:    CategoryErrors,
			Name:        "tty-unsupported-normalized",
			Description: "If TTY is unsupported by a provider, it must wrap agent.ErrNotSupported",
			Run: func(t T, ag agent.Agent) {
				cmd := ag.Platform().ShellCommand("echo tty")
				cmd.Tty = true

				process, err := ag.Start(t.Context(), cmd)
				if err != nil {
					require.ErrorIs(t, err, agent.ErrNotSupported)

					return
				}

				defer func() { _ = process.Close() }()

				require.NoError(t, process.Wait())
			},
		},
		{
			Category:    CategoryErrors,
			Name:        "masked-args-hidden-in-errors",
			Description: "Errors for failed commands never render masked arguments",
			Run: func(t T, ag agent.Agent) {
				cmd := ag.Platform().ShellCommand(exitScript(runExitErrorCode))
				cmd.Args = append(cmd.Args, "contract-secret-value")
				cmd.Masked = []int{len(cmd.Args) - 1}

				_, err := ag.Run(t.Context(), cmd)
				require.Error(t, err)

				for e := err; e != nil; e = errors.Unwrap(e) {
					require.NotContains(t, e.Error(), "contract-secret-value")
				}
			},
		},
	}
}
