package submitjcl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/fileutil"
	"github.com/ruffel/submitjcl/internal/dataset"
)

const jclFilePermissions = 0o600

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// splitMembers returns the trimmed, non-blank lines of a member list.
func splitMembers(text string) []string {
	var members []string

	for _, line := range strings.Split(lineBreaks.Replace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			members = append(members, line)
		}
	}

	return members
}

// JoinMembers turns a newline separated member list into the single
// comma separated token the CLI expects.
func JoinMembers(text string) string {
	return strings.Join(splitMembers(text), ",")
}

// UnusualMembers returns the members that do not parse as a DSN or
// DSN(MEMBER), keyed by member, with the reason. The CLI has the final say.
func UnusualMembers(text string) map[string]error {
	unusual := map[string]error{}

	for _, m := range splitMembers(text) {
		if err := dataset.ValidateSpecifier(m); err != nil {
			unusual[m] = err
		}
	}

	return unusual
}

// LooksLikeJCL reports whether the first non-blank line starts with "//".
func LooksLikeJCL(text string) bool {
	for _, line := range strings.Split(lineBreaks.Replace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return strings.HasPrefix(line, "//")
		}
	}

	return false
}

// Payload is the value passed behind the payload flag. Inline JCL payloads
// own a temporary file on the agent until Release.
type Payload struct {
	Kind  PayloadKind
	Token string

	mu       sync.Mutex
	path     string
	released bool
}

// Path returns the temporary file, or "" for member lists.
func (p *Payload) Path() string {
	return p.path
}

// Release deletes the temporary file. Only the first call does any work.
func (p *Payload) Release(ctx context.Context, l *agent.Launcher) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released || p.path == "" {
		p.released = true

		return nil
	}

	p.released = true

	if err := l.Remove(ctx, p.path); err != nil {
		return fmt.Errorf("failed to delete temporary JCL file %s: %w", p.path, err)
	}

	return nil
}

// Materializer turns a Request into a Payload.
type Materializer struct {
	// NewID defaults to uuid.NewString.
	NewID func() string
}

func (m Materializer) id() string {
	if m.NewID != nil {
		return m.NewID()
	}

	return uuid.NewString()
}

// Materialize writes inline JCL to workspace/jcl<id>.txt on the agent, or
// joins a member list. Member lists perform no I/O.
func (m Materializer) Materialize(ctx context.Context, l *agent.Launcher, workspace string, r Request) (*Payload, error) {
	switch r.Kind {
	case MemberList:
		return &Payload{Kind: MemberList, Token: JoinMembers(r.Text)}, nil
	case InlineJCL:
	default:
		return nil, fmt.Errorf("unknown payload kind %d", r.Kind)
	}

	if workspace == "" {
		return nil, errors.New("workspace is required for inline JCL")
	}

	p := l.Platform()
	path := p.Join(workspace, "jcl"+m.id()+".txt")

	if err := fileutil.CheckAgentPathTraversal(p, workspace, path); err != nil {
		return nil, err
	}

	if err := l.MkdirAll(ctx, workspace); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", workspace, err)
	}

	if err := l.WriteFile(ctx, path, []byte(strings.TrimSpace(r.Text)), agent.WithPermissions(jclFilePermissions)); err != nil {
		_ = l.Remove(context.WithoutCancel(ctx), path)

		return nil, fmt.Errorf("failed to write temporary JCL file %s: %w", path, err)
	}

	return &Payload{Kind: InlineJCL, Token: path, path: path}, nil
}
