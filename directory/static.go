package directory

import (
	"fmt"

	"github.com/ruffel/submitjcl/agent"
)

var (
	_ ConnectionDirectory = (*Static)(nil)
	_ CredentialStore     = (*Static)(nil)
	_ CLILocator          = (*Static)(nil)
)

// CLILocations holds the CLI installation directory per agent family.
type CLILocations struct {
	Unix    string
	Windows string
}

// Static is an immutable in-memory directory. Safe for concurrent readers.
type Static struct {
	connections map[string]HostConnection
	credentials map[string]Credential
	cli         CLILocations
}

// NewStatic indexes connections and credentials by ID. Duplicate IDs are rejected.
func NewStatic(connections []HostConnection, credentials []Credential, cli CLILocations) (*Static, error) {
	s := &Static{
		connections: make(map[string]HostConnection, len(connections)),
		credentials: make(map[string]Credential, len(credentials)),
		cli:         cli,
	}

	for _, c := range connections {
		if _, dup := s.connections[c.ID]; dup {
			return nil, fmt.Errorf("duplicate host connection id %q", c.ID)
		}

		s.connections[c.ID] = c
	}

	for _, c := range credentials {
		if _, dup := s.credentials[c.ID]; dup {
			return nil, fmt.Errorf("duplicate credential id %q", c.ID)
		}

		c.Scopes = append([]string(nil), c.Scopes...)
		s.credentials[c.ID] = c
	}

	return s, nil
}

func (s *Static) HostConnection(id string) (HostConnection, error) {
	c, ok := s.connections[id]
	if !ok {
		return HostConnection{}, fmt.Errorf("%w: %q", ErrConnectionNotFound, id)
	}

	return c, nil
}

// LoginInformation returns the credential only if it is visible to scope.
func (s *Static) LoginInformation(scope, id string) (Credential, error) {
	c, ok := s.credentials[id]
	if !ok || !c.VisibleTo(scope) {
		return Credential{}, fmt.Errorf("%w: %q for project %q", ErrCredentialNotFound, id, scope)
	}

	return c, nil
}

func (s *Static) TopazCLILocation(p agent.Platform) (string, error) {
	loc := s.cli.Unix
	if p == agent.OSWindows {
		loc = s.cli.Windows
	}

	if loc == "" {
		return "", fmt.Errorf("%w for %s agents", ErrCLINotConfigured, p)
	}

	return loc, nil
}
