package agenttest

import (
	"context"
	"fmt"
	"testing"

	"github.com/ruffel/submitjcl/agent"
)

// Standard categories for grouping contracts.
const (
	CategoryExec       = "exec"
	CategoryLifecycle  = "lifecycle"
	CategoryFilesystem = "filesystem"
	CategoryErrors     = "errors"
)

// T is the minimal interface required for testify/assert and require.
type T interface {
	Errorf(format string, args ...any)
	FailNow()
	Skipf(format string, args ...any)
	Context() context.Context
	TempDir() string
	Name() string
}

// TestCase defines a single behavioral contract a provider must honor.
type TestCase struct {
	Category    string
	Name        string
	Description string
	Prereq      func(t T, ag agent.Agent) (ok bool, reason string)
	Run         func(t T, ag agent.Agent)
}

// ID returns the stable, globally unique contract identifier.
func (tc TestCase) ID() string {
	return fmt.Sprintf("%s/%s", tc.Category, tc.Name)
}

// Verify runs every contract against ag. Lifecycle contracts close the agent,
// so they run last.
func Verify(t *testing.T, ag agent.Agent) {
	t.Helper()

	for _, tc := range AllContracts() {
		t.Run(tc.ID(), func(t *testing.T) {
			if tc.Prereq != nil {
				if ok, reason := tc.Prereq(t, ag); !ok {
					t.Skipf("prereq unmet: %s", reason)
				}
			}

			tc.Run(t, ag)
		})
	}
}
