package local_test

import (
	"testing"

	"github.com/ruffel/submitjcl/agenttest"
	"github.com/ruffel/submitjcl/providers/local"
	"github.com/stretchr/testify/require"
)

// The contract suite closes the agent, so it gets one of its own.
func TestAgentContracts(t *testing.T) {
	t.Parallel()

	ag, err := local.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = ag.Close() })

	agenttest.Verify(t, ag)
}
