package agenttest

import (
	"strconv"
	"strings"

	"github.com/ruffel/submitjcl/agent"
)

// remoteBase returns a per-contract scratch directory on the agent.
func remoteBase(t T, ag agent.Agent) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

	if ag.Platform() == agent.OSWindows {
		return `C:\Windows\Temp\submitjcl-contract-` + name
	}

	return "/tmp/submitjcl-contract-" + name
}

func readCommand(ag agent.Agent, file string) *agent.Command {
	if ag.Platform() == agent.OSWindows {
		return ag.Platform().ShellCommand("Get-Content -Raw " + file)
	}

	return ag.Platform().ShellCommand("cat " + file)
}

func exitScript(code int) string {
	return "exit " + strconv.Itoa(code)
}

func envScript(ag agent.Agent, name string) string {
	if ag.Platform() == agent.OSWindows {
		return "Write-Output $env:" + name
	}

	return `echo "$` + name + `"`
}
