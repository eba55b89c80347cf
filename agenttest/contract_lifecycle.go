package agenttest

import (
	"path/filepath"

	"github.com/ruffel/submitjcl/agent"
	"github.com/stretchr/testify/require"
)

func lifecycleContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryLifecycle,
			Name:        "close-idempotent",
			Description: "Closing an agent multiple times is deterministic and non-fatal",
			Run: func(t T, ag agent.Agent) {
				require.NoError(t, ag.Close())
				require.NoError(t, ag.Close())
			},
		},
		{
			Category:    CategoryLifecycle,
			Name:        "closed-agent-rejects-work",
			Description: "Every operation fails deterministically after close",
			Run: func(t T, ag agent.Agent) {
				require.NoError(t, ag.Close())

				ctx := t.Context()
				base := remoteBase(t, ag)

				_, err := ag.Run(ctx, ag.Platform().ShellCommand("echo closed"))
				require.Error(t, err)

				_, err = ag.Start(ctx, ag.Platform().ShellCommand("echo closed"))
				require.Error(t, err)

				_, err = ag.LookPath(ctx, "sh")
				require.Error(t, err)

				require.Error(t, ag.Upload(ctx, filepath.Join(t.TempDir(), "src.txt"), ag.Platform().Join(base, "dst.txt")))
				require.Error(t, ag.Download(ctx, ag.Platform().Join(base, "src.txt"), filepath.Join(t.TempDir(), "dst.txt")))
				require.Error(t, ag.MkdirAll(ctx, base))
				require.Error(t, ag.Remove(ctx, base))
			},
		},
	}
}
