package agenttest

import (
	"strings"

	"github.com/ruffel/submitjcl/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execContracts() []TestCase {
	return []TestCase{
		{
			Category: CategoryExec,
			Name:     "buffered-echo",
			Run: func(t T, ag agent.Agent) {
				res, err := agent.NewLauncher(ag).RunBuffered(t.Context(), ag.Platform().ShellCommand("echo submitjcl"))
				require.NoError(t, err)
				require.NotNil(t, res)

				assert.Equal(t, "submitjcl", strings.TrimSpace(string(res.Stdout)))
				assert.Equal(t, 0, res.ExitCode)
			},
		},
		{
			Category:    CategoryExec,
			Name:        "stream-merges-stdout-stderr",
			Description: "Stream delivers every line from both output streams",
			Run: func(t T, ag agent.Agent) {
				script := "echo line-one; echo line-two; echo line-err 1>&2"
				if ag.Platform() == agent.OSWindows {
					script = "Write-Output line-one; Write-Output line-two; [Console]::Error.WriteLine('line-err')"
				}

				var lines []string

				res, err := agent.NewLauncher(ag).Stream(t.Context(), ag.Platform().ShellCommand(script), func(line string) {
					lines = append(lines, strings.TrimSpace(line))
				})
				require.NoError(t, err)
				require.Equal(t, 0, res.ExitCode)

				assert.ElementsMatch(t, []string{"line-one", "line-two", "line-err"}, lines)
			},
		},
		{
			Category:    CategoryExec,
			Name:        "env-appended",
			Description: "Command.Env reaches the process on top of the inherited environment",
			Run: func(t T, ag agent.Agent) {
				cmd := ag.Platform().ShellCommand(envScript(ag, "SUBMITJCL_CONTRACT"))
				cmd.Env = []string{"SUBMITJCL_CONTRACT=build-42"}

				res, err := agent.NewLauncher(ag).RunBuffered(t.Context(), cmd)
				require.NoError(t, err)
				assert.Equal(t, "build-42", strings.TrimSpace(string(res.Stdout)))
			},
		},
		{
			Category:    CategoryExec,
			Name:        "working-directory",
			Description: "Command.Dir sets the working directory on the agent",
			Run: func(t T, ag agent.Agent) {
				l := agent.NewLauncher(ag)
				dir := ag.Platform().Join(remoteBase(t, ag), "ws")

				require.NoError(t, l.WriteFile(t.Context(), ag.Platform().Join(dir, "marker.txt"), []byte("in-workspace")))

				defer func() { _ = l.Remove(t.Context(), remoteBase(t, ag)) }()

				cmd := readCommand(ag, "marker.txt")
				cmd.Dir = dir

				res, err := l.RunBuffered(t.Context(), cmd)
				require.NoError(t, err)
				assert.Equal(t, "in-workspace", strings.TrimSpace(string(res.Stdout)))
			},
		},
		{
			Category: CategoryExec,
			Name:     "lookpath",
			Run: func(t T, ag agent.Agent) {
				binary := "sh"
				if ag.Platform() == agent.OSWindows {
					binary = "cmd.exe"
				}

				path, err := agent.NewLauncher(ag).LookPath(t.Context(), binary)
				require.NoError(t, err)
				assert.NotEmpty(t, path)
			},
		},
	}
}
