// Package config loads the submitjcl settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/ruffel/submitjcl/cliversion"
	"github.com/ruffel/submitjcl/directory"
	"gopkg.in/yaml.v3"
)

// DefaultCodePage is used when a connection does not name one.
const DefaultCodePage = "1047"

// Settings mirrors the YAML settings file.
type Settings struct {
	CLI         CLI          `yaml:"cli"`
	Connections []Connection `yaml:"connections"`
	Credentials []Credential `yaml:"credentials"`
	Agent       Agent        `yaml:"agent"`
}

// CLI locates the Topaz CLI on build agents.
type CLI struct {
	Linux          string `yaml:"linux"`
	Windows        string `yaml:"windows"`
	MinimumVersion string `yaml:"minimumVersion"`
	// VersionCommand, when set, replaces the versions.xml lookup. {cli} expands to the CLI directory.
	VersionCommand string `yaml:"versionCommand"`
}

type Connection struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	HostPort    string `yaml:"hostPort"`
	Protocol    string `yaml:"protocol"`
	CodePage    string `yaml:"codePage"`
	Timeout     int    `yaml:"timeout"`
}

type Credential struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// PasswordEnv names an environment variable holding the password.
	PasswordEnv string   `yaml:"passwordEnv"`
	Scopes      []string `yaml:"scopes"`
}

// Load reads, parses and validates the settings file.
func Load(filename string) (*Settings, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", filename, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	return s, nil
}

// Parse decodes and validates settings YAML. Unknown keys are rejected.
func Parse(data []byte) (*Settings, error) {
	var s Settings

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate reports every problem in one error.
func (s *Settings) Validate() error {
	var errs []string

	if s.CLI.Linux == "" && s.CLI.Windows == "" {
		errs = append(errs, "at least one of 'cli.linux' or 'cli.windows' is required")
	}

	seen := make(map[string]bool)

	for i, c := range s.Connections {
		ctx := fmt.Sprintf("connections[%d]", i)

		if c.ID == "" {
			errs = append(errs, ctx+": field 'id' is required")
		} else if seen[c.ID] {
			errs = append(errs, fmt.Sprintf("%s: duplicate id %q", ctx, c.ID))
		}

		seen[c.ID] = true

		if _, _, err := splitHostPort(c.HostPort); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ctx, err))
		}

		if c.Timeout < 0 {
			errs = append(errs, ctx+": field 'timeout' cannot be negative")
		}
	}

	seen = make(map[string]bool)

	for i, c := range s.Credentials {
		ctx := fmt.Sprintf("credentials[%d]", i)

		if c.ID == "" {
			errs = append(errs, ctx+": field 'id' is required")
		} else if seen[c.ID] {
			errs = append(errs, fmt.Sprintf("%s: duplicate id %q", ctx, c.ID))
		}

		seen[c.ID] = true

		if c.Username == "" {
			errs = append(errs, ctx+": field 'username' is required")
		}

		if c.Password != "" && c.PasswordEnv != "" {
			errs = append(errs, ctx+": set only one of 'password' or 'passwordEnv'")
		}
	}

	errs = append(errs, s.Agent.validate()...)

	if len(errs) > 0 {
		return errors.New("settings validation failed:\n- " + strings.Join(errs, "\n- "))
	}

	return nil
}

// Directory builds the connection and credential directory. Passwords named
// by passwordEnv are read from the environment now.
func (s *Settings) Directory() (*directory.Static, error) {
	conns := make([]directory.HostConnection, 0, len(s.Connections))

	for _, c := range s.Connections {
		host, port, err := splitHostPort(c.HostPort)
		if err != nil {
			return nil, fmt.Errorf("connection %q: %w", c.ID, err)
		}

		codePage := c.CodePage
		if codePage == "" {
			codePage = DefaultCodePage
		}

		conns = append(conns, directory.HostConnection{
			ID:          c.ID,
			Description: c.Description,
			Host:        host,
			Port:        port,
			Protocol:    c.Protocol,
			CodePage:    codePage,
			Timeout:     c.Timeout,
		})
	}

	creds := make([]directory.Credential, 0, len(s.Credentials))

	for _, c := range s.Credentials {
		password := c.Password

		if c.PasswordEnv != "" {
			v, ok := os.LookupEnv(c.PasswordEnv)
			if !ok {
				return nil, fmt.Errorf("credential %q: environment variable %s is not set", c.ID, c.PasswordEnv)
			}

			password = v
		}

		creds = append(creds, directory.Credential{
			ID:       c.ID,
			Username: c.Username,
			Password: password,
			Scopes:   c.Scopes,
		})
	}

	return directory.NewStatic(conns, creds, directory.CLILocations{Unix: s.CLI.Linux, Windows: s.CLI.Windows})
}

// Gate returns the configured CLI version gate.
func (s *Settings) Gate() cliversion.Gate {
	g := cliversion.Gate{Minimum: s.CLI.MinimumVersion}

	if s.CLI.VersionCommand != "" {
		g.Source = cliversion.CommandSource{Command: s.CLI.VersionCommand}
	}

	return g
}

func splitHostPort(hostPort string) (string, string, error) {
	if hostPort == "" {
		return "", "", errors.New("field 'hostPort' is required")
	}

	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return "", "", fmt.Errorf("invalid hostPort %q: %w", hostPort, err)
	}

	if host == "" || port == "" {
		return "", "", fmt.Errorf("invalid hostPort %q: host and port are required", hostPort)
	}

	return host, port, nil
}
