package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/cliversion"
	"github.com/ruffel/submitjcl/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSettings = `
cli:
  linux: /opt/Compuware/TopazCLI
  windows: C:\Program Files\Compuware\TopazCLI
  minimumVersion: 19.02.01
connections:
  - id: cw01
    description: CW01 test LPAR
    hostPort: cw01.example.com:16196
    protocol: TLSv1.2
    timeout: 30
  - id: cw02
    hostPort: "[fd00::12]:30947"
    codePage: "1140"
credentials:
  - id: tso
    username: USER01
    password: s3cr3t
  - id: payroll
    username: PAY01
    passwordEnv: SUBMITJCL_TEST_PAYROLL_PASSWORD
    scopes: [payroll]
agent:
  type: local
`

func TestParse(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(validSettings))
	require.NoError(t, err)

	assert.Equal(t, "/opt/Compuware/TopazCLI", s.CLI.Linux)
	assert.Equal(t, `C:\Program Files\Compuware\TopazCLI`, s.CLI.Windows)
	assert.Len(t, s.Connections, 2)
	assert.Equal(t, []string{"payroll"}, s.Credentials[1].Scopes)
	assert.Equal(t, AgentLocal, s.Agent.Kind())

	g := s.Gate()
	assert.Equal(t, "19.02.01", g.Minimum)
	assert.Nil(t, g.Source)
}

func TestParse_VersionCommand(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte("cli:\n  linux: /opt/cli\n  versionCommand: '{cli}/TopazCLI.sh -version'\n"))
	require.NoError(t, err)

	assert.Equal(t, cliversion.CommandSource{Command: "{cli}/TopazCLI.sh -version"}, s.Gate().Source)
}

func TestParse_ValidationAggregates(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`
connections:
  - id: cw01
    hostPort: cw01.example.com
  - id: cw01
    hostPort: cw01.example.com:16196
    timeout: -1
credentials:
  - id: tso
    password: a
    passwordEnv: B
agent:
  type: telnet
`))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "settings validation failed:\n- ")
	assert.Contains(t, msg, "'cli.linux' or 'cli.windows'")
	assert.Contains(t, msg, `connections[0]: invalid hostPort "cw01.example.com"`)
	assert.Contains(t, msg, `connections[1]: duplicate id "cw01"`)
	assert.Contains(t, msg, "connections[1]: field 'timeout' cannot be negative")
	assert.Contains(t, msg, "credentials[0]: field 'username' is required")
	assert.Contains(t, msg, "credentials[0]: set only one of 'password' or 'passwordEnv'")
	assert.Contains(t, msg, `agent: unknown type "telnet"`)
}

func TestParse_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("cli:\n  linux: /opt/cli\n  lnux: typo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	_, err := Parse(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings validation failed")
}

func TestAgentValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		agent   Agent
		wantErr bool
	}{
		{"default local", Agent{}, false},
		{"ssh alias", Agent{Type: "ssh", SSH: SSHAgent{Alias: "zos-agent"}}, false},
		{"ssh explicit", Agent{Type: "SSH", SSH: SSHAgent{Host: "agent01", User: "jenkins"}}, false},
		{"ssh missing user", Agent{Type: "ssh", SSH: SSHAgent{Host: "agent01"}}, true},
		{"ssh bad port", Agent{Type: "ssh", SSH: SSHAgent{Alias: "a", Port: 70000}}, true},
		{"docker", Agent{Type: "docker", Docker: DockerAgent{Container: "build"}}, false},
		{"docker missing container", Agent{Type: "docker"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := tt.agent.validate()
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "submitjcl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cli:\n  linux: /opt/cli\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/cli", s.CLI.Linux)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDirectory(t *testing.T) {
	t.Setenv("SUBMITJCL_TEST_PAYROLL_PASSWORD", "from-env")

	s, err := Parse([]byte(validSettings))
	require.NoError(t, err)

	dir, err := s.Directory()
	require.NoError(t, err)

	c, err := dir.HostConnection("cw01")
	require.NoError(t, err)
	assert.Equal(t, directory.HostConnection{
		ID:          "cw01",
		Description: "CW01 test LPAR",
		Host:        "cw01.example.com",
		Port:        "16196",
		Protocol:    "TLSv1.2",
		CodePage:    DefaultCodePage,
		Timeout:     30,
	}, c)

	c, err = dir.HostConnection("cw02")
	require.NoError(t, err)
	assert.Equal(t, "fd00::12", c.Host)
	assert.Equal(t, "30947", c.Port)
	assert.Equal(t, "1140", c.CodePage)

	cred, err := dir.LoginInformation("payroll", "payroll")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cred.Password)

	_, err = dir.LoginInformation("billing", "payroll")
	require.ErrorIs(t, err, directory.ErrCredentialNotFound)

	loc, err := dir.TopazCLILocation(agent.OSWindows)
	require.NoError(t, err)
	assert.Equal(t, `C:\Program Files\Compuware\TopazCLI`, loc)
}

func TestDirectory_MissingPasswordEnv(t *testing.T) {
	t.Parallel()

	s := &Settings{Credentials: []Credential{{ID: "tso", Username: "U", PasswordEnv: "SUBMITJCL_TEST_UNSET_VARIABLE"}}}

	_, err := s.Directory()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUBMITJCL_TEST_UNSET_VARIABLE")
}

func TestAgentOpen(t *testing.T) {
	t.Parallel()

	ag, err := Agent{}.Open()
	require.NoError(t, err)

	defer func() { _ = ag.Close() }()

	assert.Equal(t, agent.DetectLocalPlatform(), ag.Platform())

	dockerAgent, err := Agent{Type: "docker", Docker: DockerAgent{Container: "build", OS: "windows"}}.Open()
	require.NoError(t, err)

	defer func() { _ = dockerAgent.Close() }()

	assert.Equal(t, agent.OSWindows, dockerAgent.Platform())
}
