package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/agenttest"
	"github.com/ruffel/submitjcl/providers/local"
)

func openLocal() (agent.Agent, error) {
	return local.New()
}

type contractResult struct {
	passed  bool
	skipped bool
	errMsg  string
	skipMsg string
}

// contractTester satisfies agenttest.T outside of go test.
type contractTester struct {
	ctx      context.Context //nolint:containedctx
	name     string
	failed   bool
	skipped  bool
	errMsg   string
	skipMsg  string
	tempDirs []string
}

func (c *contractTester) Errorf(f string, a ...any) {
	c.failed = true
	c.errMsg = fmt.Sprintf(f, a...)
}

func (c *contractTester) FailNow() {
	c.failed = true

	panic(failNow{})
}

func (c *contractTester) Skipf(f string, a ...any) {
	c.skipped = true
	c.skipMsg = fmt.Sprintf(f, a...)

	panic(skipNow{})
}

func (c *contractTester) Context() context.Context {
	return c.ctx
}

func (c *contractTester) Name() string {
	return c.name
}

func (c *contractTester) TempDir() string {
	dir, err := os.MkdirTemp("", "submitjcl-contract-*")
	if err != nil {
		panic(err)
	}

	c.tempDirs = append(c.tempDirs, dir)

	return dir
}

func (c *contractTester) cleanup() {
	for _, dir := range c.tempDirs {
		_ = os.RemoveAll(dir)
	}
}

type failNow struct{}

type skipNow struct{}

// runMatrix returns results keyed by contract ID, then agent name.
func runMatrix(ctx context.Context, agents map[string]agent.Agent) map[string]map[string]contractResult {
	data := make(map[string]map[string]contractResult)

	for name, ag := range agents {
		for _, tc := range agenttest.AllContracts() {
			if data[tc.ID()] == nil {
				data[tc.ID()] = make(map[string]contractResult)
			}

			data[tc.ID()][name] = runContract(ctx, tc, ag)
		}
	}

	return data
}

func runContract(ctx context.Context, tc agenttest.TestCase, ag agent.Agent) contractResult {
	t := &contractTester{ctx: ctx, name: tc.ID()}
	defer t.cleanup()

	runWithRecovery(t, tc, ag)

	return contractResult{
		passed:  !t.failed && !t.skipped,
		skipped: t.skipped,
		errMsg:  t.errMsg,
		skipMsg: t.skipMsg,
	}
}

func runWithRecovery(t *contractTester, tc agenttest.TestCase, ag agent.Agent) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case failNow, skipNow:
				return
			default:
				panic(r)
			}
		}
	}()

	if tc.Prereq != nil {
		if ok, reason := tc.Prereq(t, ag); !ok {
			t.Skipf("prereq unmet: %s", reason)
		}
	}

	tc.Run(t, ag)
}

func sortedNames(agents map[string]agent.Agent) []string {
	names := make([]string, 0, len(agents))
	for n := range agents {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// renderMatrix prints one row per contract and returns the number of failures.
func renderMatrix(out io.Writer, names []string, matrix map[string]map[string]contractResult) int {
	contracts := agenttest.AllContracts()
	nameWidth, colWidth := columnWidths(contracts, names)

	var header strings.Builder

	header.WriteString(headerStyle.Render(fmt.Sprintf("%-*s", nameWidth, "CONTRACT")))

	for _, n := range names {
		header.WriteString(" ")
		header.WriteString(headerStyle.Render(fmt.Sprintf("%-*s", colWidth, strings.ToUpper(n))))
	}

	fmt.Fprintln(out, "\n"+header.String())

	var (
		category string
		issues   []string
	)

	for _, tc := range contracts {
		if tc.Category != category {
			category = tc.Category
			fmt.Fprintln(out, catStyle.Render(strings.ToUpper(category)))
		}

		var line strings.Builder

		line.WriteString(rowStyle.Render(fmt.Sprintf("%-*s", nameWidth, fitColumn(tc.Name, nameWidth))))

		for _, n := range names {
			status, style := "PASSED", passedStyle

			switch res := matrix[tc.ID()][n]; {
			case res.skipped:
				status, style = "SKIPPED", skippedStyle
			case !res.passed:
				status, style = "FAILED", failedStyle
				issues = append(issues, fmt.Sprintf("[%s] %s: %s", strings.ToUpper(n), tc.ID(), res.errMsg))
			}

			line.WriteString(" ")
			line.WriteString(style.Render(fmt.Sprintf("%-*s", colWidth, status)))
		}

		fmt.Fprintln(out, line.String())
	}

	if len(issues) == 0 {
		fmt.Fprintln(out, checkStyle.Render("\n✅ Agent honors every contract"))

		return 0
	}

	fmt.Fprintln(out, errorStyle.Render("\n❌ Issue Details:"))

	for _, issue := range issues {
		fmt.Fprintf(out, "  - %s\n", issue)
	}

	return len(issues)
}

func columnWidths(contracts []agenttest.TestCase, names []string) (int, int) {
	const (
		nameMinWidth = 30
		nameMaxWidth = 48
		colMinWidth  = 8
	)

	nameWidth := nameMinWidth
	for _, tc := range contracts {
		nameWidth = max(nameWidth, len(tc.Name))
	}

	nameWidth = min(nameWidth, nameMaxWidth)

	colWidth := max(colMinWidth, len("SKIPPED"))
	for _, n := range names {
		colWidth = max(colWidth, len(n))
	}

	return nameWidth, colWidth
}

func fitColumn(value string, width int) string {
	if len(value) <= width {
		return value
	}

	if width <= 1 {
		return value[:width]
	}

	return value[:width-1] + "…"
}
