package fileutil

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ruffel/submitjcl/agent"
)

// CheckPathTraversal validates that target is a child of root using local filesystem
// path conventions. Returns an error if target escapes the root directory.
func CheckPathTraversal(root, target string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("illegal file path: cannot resolve root %s: %w", root, err)
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("illegal file path: cannot resolve target %s: %w", target, err)
	}

	if absRoot == absTarget {
		return nil
	}

	if !strings.HasPrefix(absTarget, absRoot+string(os.PathSeparator)) {
		return fmt.Errorf("illegal file path: %s is not within %s", target, root)
	}

	return nil
}

// CheckAgentPathTraversal validates that target is a child of root using the
// path rules of the agent platform rather than the controller's.
// Windows paths are compared case-insensitively.
func CheckAgentPathTraversal(p agent.Platform, root, target string) error {
	cleanRoot, cleanTarget := normalize(p, root), normalize(p, target)

	if cleanRoot == cleanTarget {
		return nil
	}

	prefix := cleanRoot
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	if !strings.HasPrefix(cleanTarget, prefix) {
		return fmt.Errorf("illegal agent file path: %s is not within %s", target, root)
	}

	return nil
}

func normalize(p agent.Platform, s string) string {
	if p == agent.OSWindows {
		s = strings.ToLower(strings.ReplaceAll(s, `\`, "/"))
	}

	return path.Clean(s)
}
