package agent

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Mask replaces sensitive arguments wherever a command is rendered for humans.
const Mask = "********"

// Command configures a process execution on an agent.
type Command struct {
	Cmd  string   // Script name or path to executable
	Args []string // Arguments to pass to the binary
	Env  []string // Extra environment variables in "KEY=VALUE" format, appended to the inherited set
	Dir  string   // Working directory for execution

	// Masked lists indexes into Args whose values must never be rendered.
	Masked []int

	// Standard streams. If nil, defaults to empty/discard.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Tty allocates a PTY.
	Tty bool
}

// Validate checks that the command is well-formed.
// Returns an error if the command is nil or has an empty binary.
func (c *Command) Validate() error {
	if c == nil {
		return errors.New("command cannot be nil")
	}

	if strings.TrimSpace(c.Cmd) == "" {
		return errors.New("command binary cannot be empty")
	}

	for _, i := range c.Masked {
		if i < 0 || i >= len(c.Args) {
			return fmt.Errorf("masked argument index %d out of range", i)
		}
	}

	return nil
}

// NewCommand creates a new Command with the given binary and arguments.
func NewCommand(binary string, args ...string) *Command {
	return &Command{
		Cmd:  binary,
		Args: args,
	}
}

// IsMasked reports whether the argument at index i is sensitive.
func (c *Command) IsMasked(i int) bool {
	return slices.Contains(c.Masked, i)
}

// String returns a human-readable representation of the command with masked
// arguments replaced. It is not suitable for execution.
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Cmd
	}

	var b strings.Builder
	b.WriteString(c.Cmd)

	for i, arg := range c.Args {
		b.WriteString(" ")

		switch {
		case c.IsMasked(i):
			b.WriteString(Mask)
		case strings.Contains(arg, " ") && !strings.HasPrefix(arg, `"`):
			fmt.Fprintf(&b, "%q", arg)
		default:
			b.WriteString(arg)
		}
	}

	return b.String()
}

// ParseCommand parses a shell command string into a Command struct using shlex.
// It handles quoted arguments correctly.
func ParseCommand(cmdStr string) (*Command, error) {
	parts, err := shlex.Split(cmdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	return &Command{
		Cmd:  parts[0],
		Args: parts[1:],
	}, nil
}

// Result contains metadata about a completed command execution.
type Result struct {
	ExitCode int           // Process exit code (0 indicates success)
	Duration time.Duration // Time taken for execution
	Error    error         // Launch/Transport error (distinct from non-zero exit code)
}

// BufferedResult extends Result to include captured stdout/stderr content.
// Returned by Launcher.RunBuffered.
type BufferedResult struct {
	Result

	Stdout []byte
	Stderr []byte
}
