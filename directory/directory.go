// Package directory resolves the host connections, credentials and CLI
// locations a build step refers to by identifier.
//
// The lookups are expressed as small interfaces so the step can be driven
// from a settings file, a test fixture or any other store.
package directory

import (
	"errors"
	"slices"
	"strconv"

	"github.com/ruffel/submitjcl/agent"
)

var (
	ErrConnectionNotFound = errors.New("host connection not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCLINotConfigured   = errors.New("topaz CLI location not configured")
)

// HostConnection describes how the CLI reaches the mainframe.
type HostConnection struct {
	ID          string
	Description string
	Host        string
	Port        string
	// Protocol is the optional TLS level. The CLI flag set has no slot for it.
	Protocol string
	CodePage string
	// Timeout is in seconds.
	Timeout int
}

// TimeoutString renders Timeout the way the CLI expects it.
func (c HostConnection) TimeoutString() string {
	return strconv.Itoa(c.Timeout)
}

// Credential is a mainframe login.
type Credential struct {
	ID       string
	Username string
	Password string
	// Scopes lists the projects allowed to use the credential. Empty means all.
	Scopes []string
}

// VisibleTo reports whether scope may use the credential.
func (c Credential) VisibleTo(scope string) bool {
	return len(c.Scopes) == 0 || slices.Contains(c.Scopes, scope)
}

// ConnectionDirectory resolves host connections by ID.
type ConnectionDirectory interface {
	HostConnection(id string) (HostConnection, error)
}

// CredentialStore resolves credentials by ID within a project scope.
type CredentialStore interface {
	LoginInformation(scope, id string) (Credential, error)
}

// CLILocator returns the Topaz CLI installation directory for an agent platform.
type CLILocator interface {
	TopazCLILocation(p agent.Platform) (string, error)
}
