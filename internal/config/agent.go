package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/providers/docker"
	"github.com/ruffel/submitjcl/providers/local"
	"github.com/ruffel/submitjcl/providers/ssh"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Agent types.
const (
	AgentLocal  = "local"
	AgentSSH    = "ssh"
	AgentDocker = "docker"
)

// Agent selects the build agent the CLI runs on.
type Agent struct {
	// Type is local (default), ssh or docker.
	Type   string      `yaml:"type"`
	SSH    SSHAgent    `yaml:"ssh"`
	Docker DockerAgent `yaml:"docker"`
}

// SSHAgent either names an ~/.ssh/config alias or spells out the connection.
// Explicit fields override values resolved from the alias.
type SSHAgent struct {
	Alias      string `yaml:"alias"`
	ConfigFile string `yaml:"configFile"`

	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	PrivateKeyPath     string `yaml:"privateKeyPath"`
	PasswordEnv        string `yaml:"passwordEnv"`
	UseAgent           bool   `yaml:"useAgent"`
	KnownHosts         string `yaml:"knownHosts"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
	OS                 string `yaml:"os"`
}

type DockerAgent struct {
	Container string `yaml:"container"`
	Host      string `yaml:"host"`
	Version   string `yaml:"version"`
	OS        string `yaml:"os"`
}

// Kind returns the normalized agent type; empty means local.
func (a Agent) Kind() string {
	if a.Type == "" {
		return AgentLocal
	}

	return strings.ToLower(a.Type)
}

func (a Agent) validate() []string {
	var errs []string

	switch a.Kind() {
	case AgentLocal:
	case AgentSSH:
		if a.SSH.Alias == "" && (a.SSH.Host == "" || a.SSH.User == "") {
			errs = append(errs, "agent.ssh: set 'alias' or both 'host' and 'user'")
		}

		if a.SSH.Port < 0 || a.SSH.Port > 65535 {
			errs = append(errs, fmt.Sprintf("agent.ssh: invalid port %d", a.SSH.Port))
		}
	case AgentDocker:
		if a.Docker.Container == "" {
			errs = append(errs, "agent.docker: field 'container' is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("agent: unknown type %q; allowed: local, ssh, docker", a.Type))
	}

	return errs
}

// Open connects to the configured build agent.
func (a Agent) Open() (agent.Agent, error) {
	var (
		ag  agent.Agent
		err error
	)

	switch a.Kind() {
	case AgentSSH:
		ag, err = a.openSSH()
	case AgentDocker:
		cfg := docker.NewConfig(a.Docker.Container)
		cfg.Host = a.Docker.Host
		cfg.Version = a.Docker.Version
		cfg.OS = agent.ParsePlatform(a.Docker.OS)

		ag, err = docker.New(cfg)
	case AgentLocal:
		ag, err = local.New()
	default:
		return nil, fmt.Errorf("unknown agent type %q", a.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s agent: %w", a.Kind(), err)
	}

	return ag, nil
}

func (a Agent) openSSH() (*ssh.Agent, error) {
	s := a.SSH

	cfg := ssh.NewConfig(s.Host, s.User)

	if s.Alias != "" {
		resolved, err := ssh.NewFromSSHConfig(s.Alias, s.ConfigFile)
		if err != nil {
			return nil, err
		}

		cfg = resolved

		if s.Host != "" {
			cfg.Host = s.Host
		}

		if s.User != "" {
			cfg.User = s.User
		}
	}

	if s.Port != 0 {
		cfg.Port = s.Port
	}

	if s.PrivateKeyPath != "" {
		cfg.PrivateKeyPath = s.PrivateKeyPath
	}

	if s.PasswordEnv != "" {
		cfg.Password = os.Getenv(s.PasswordEnv)
	}

	cfg.UseAgent = s.UseAgent
	cfg.InsecureSkipVerify = cfg.InsecureSkipVerify || s.InsecureSkipVerify
	cfg.OS = agent.ParsePlatform(s.OS)

	if !cfg.InsecureSkipVerify {
		check, err := hostKeyCallback(s.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}

		cfg.HostKeyCheck = check
	}

	return ssh.New(cfg)
}

func hostKeyCallback(path string) (gossh.HostKeyCallback, error) {
	if path == "" {
		return ssh.DefaultKnownHosts()
	}

	return knownhosts.New(path)
}
