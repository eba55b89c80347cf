// Package escape quotes configuration values so each one reaches the CLI
// entry script as exactly one argument.
//
// Values are wrapped in double quotes and otherwise kept as given, including
// leading and trailing spaces. For sh, characters still expanded inside double
// quotes are neutralized. Line breaks become spaces since neither sh nor
// cmd.exe can carry them inside one argument; callers reject secrets that
// contain them.
package escape

import (
	"strings"

	"github.com/ruffel/submitjcl/agent"
)

var (
	unixReplacer = strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		`$`, `\$`,
		"`", "\\`",
		"\r\n", " ",
		"\r", " ",
		"\n", " ",
	)

	windowsReplacer = strings.NewReplacer(
		`"`, `""`,
		"\r\n", " ",
		"\r", " ",
		"\n", " ",
	)
)

// Func escapes a single value.
type Func func(string) string

// For returns the escaper matching the quoting rules of the agent platform.
func For(p agent.Platform) Func {
	if p == agent.OSWindows {
		return Windows
	}

	return Unix
}

// Unix quotes s for a POSIX shell script.
func Unix(s string) string {
	return `"` + unixReplacer.Replace(s) + `"`
}

// Windows quotes s for a batch script. Percent signs are left alone: cmd.exe
// only collapses %% inside a batch file, not on the command line that starts it.
func Windows(s string) string {
	return `"` + windowsReplacer.Replace(s) + `"`
}
