package agent

import (
	"path"
	"runtime"
	"strings"
)

// Platform identifies the operating system of a build agent.
type Platform int

const (
	// OSUnknown represents an unidentified operating system.
	OSUnknown Platform = iota
	// OSLinux represents the Linux kernel.
	OSLinux
	// OSWindows represents Microsoft Windows.
	OSWindows
	// OSDarwin represents macOS (Darwin).
	OSDarwin
)

func (p Platform) String() string {
	switch p {
	case OSLinux:
		return "linux"
	case OSWindows:
		return "windows"
	case OSDarwin:
		return "darwin"
	case OSUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// IsUnix reports whether the agent runs a Unix-like system.
// Unknown platforms are treated as Unix-like.
func (p Platform) IsUnix() bool {
	return p != OSWindows
}

// Separator returns the agent's path separator.
func (p Platform) Separator() string {
	if p == OSWindows {
		return `\`
	}

	return "/"
}

// Join joins path elements with the agent's separator. Empty elements are ignored.
func (p Platform) Join(elem ...string) string {
	if p.IsUnix() {
		return path.Join(elem...)
	}

	parts := make([]string, 0, len(elem))

	for i, e := range elem {
		if i > 0 {
			e = strings.TrimLeft(e, `\/`)
		}

		e = strings.TrimRight(e, `\/`)
		if e == "" {
			continue
		}

		parts = append(parts, e)
	}

	return strings.Join(parts, `\`)
}

// ShellCommand constructs a command that runs the provided script inside the system shell.
// Returns "sh -c <script>" for UNIX-likes and "powershell ..." for Windows.
func (p Platform) ShellCommand(script string) *Command {
	if p == OSWindows {
		return &Command{
			Cmd:  "powershell",
			Args: []string{"-NoProfile", "-NonInteractive", "-Command", script},
		}
	}

	return &Command{
		Cmd:  "sh",
		Args: []string{"-c", script},
	}
}

// ParsePlatform converts a typical OS string (e.g., "linux", "darwin") to a Platform.
func ParsePlatform(osStr string) Platform {
	switch strings.ToLower(strings.TrimSpace(osStr)) {
	case "linux":
		return OSLinux
	case "windows", "windows_nt":
		return OSWindows
	case "darwin", "macos":
		return OSDarwin
	default:
		return OSUnknown
	}
}

// DetectLocalPlatform returns the Platform of the current running process.
func DetectLocalPlatform() Platform {
	return ParsePlatform(runtime.GOOS)
}
