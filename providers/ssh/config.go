package ssh

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/ruffel/submitjcl/agent"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultPort    = 22
	defaultTimeout = 10 * time.Second
)

// Config holds all parameters required to reach a build agent over SSH.
type Config struct {
	Host string
	Port int
	User string

	// Authentication methods, tried in order.
	PrivateKey     string // PEM encoded private key content
	PrivateKeyPath string
	Password       string
	UseAgent       bool // use the key agent behind SSH_AUTH_SOCK

	Timeout            time.Duration
	HostKeyCheck       ssh.HostKeyCallback
	InsecureSkipVerify bool           // disables host key checking; testing only
	OS                 agent.Platform // agent operating system (default OSLinux)
}

// NewConfig creates a Config with safe defaults.
// It does NOT set a HostKeyCheck; provide one or set InsecureSkipVerify.
func NewConfig(host, username string) Config {
	return Config{
		Host:    host,
		User:    username,
		Port:    defaultPort,
		Timeout: defaultTimeout,
	}
}

// NewFromSSHConfig resolves alias from an OpenSSH client config file.
// An empty path reads ~/.ssh/config.
func NewFromSSHConfig(alias, path string) (Config, error) {
	if path == "" {
		path = filepath.Join(homeDir(), ".ssh", "config")
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open ssh config: %w", err)
	}

	defer func() { _ = f.Close() }()

	return NewFromSSHConfigReader(alias, f)
}

// NewFromSSHConfigReader resolves alias to HostName, User, Port and IdentityFile.
func NewFromSSHConfigReader(alias string, r io.Reader) (Config, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse ssh config: %w", err)
	}

	hostName, err := cfg.Get(alias, "HostName")
	if err != nil || hostName == "" {
		hostName = alias
	}

	username, _ := cfg.Get(alias, "User")
	if username == "" {
		if u, _ := user.Current(); u != nil {
			username = u.Username
		}
	}

	c := NewConfig(hostName, username)

	if portStr, _ := cfg.Get(alias, "Port"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid port %q for host %s: %w", portStr, alias, err)
		}

		c.Port = port
	}

	identityFile, _ := cfg.Get(alias, "IdentityFile")
	if strings.HasPrefix(identityFile, "~/") {
		identityFile = filepath.Join(homeDir(), identityFile[2:])
	}

	c.PrivateKeyPath = identityFile

	if strict, _ := cfg.Get(alias, "StrictHostKeyChecking"); strict == "no" {
		c.InsecureSkipVerify = true
	}

	return c, nil
}

// WithDefaults sets default values for zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = defaultPort
	}

	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}

	if c.InsecureSkipVerify && c.HostKeyCheck == nil {
		c.HostKeyCheck = ssh.InsecureIgnoreHostKey() //nolint:gosec // opt-in only
	}

	if c.OS == agent.OSUnknown {
		c.OS = agent.OSLinux
	}

	return c
}

// Validate ensures all required fields are present.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("configuration error: host address cannot be empty")
	}

	if c.User == "" {
		return errors.New("configuration error: user cannot be empty")
	}

	if c.HostKeyCheck == nil {
		return errors.New("configuration error: HostKeyCheck is missing; provide a known_hosts callback or set InsecureSkipVerify (testing only)")
	}

	return nil
}

// ToClientConfig converts Config to the underlying ssh.ClientConfig.
func (c Config) ToClientConfig() (*ssh.ClientConfig, error) {
	config := &ssh.ClientConfig{
		User:            c.User,
		Auth:            []ssh.AuthMethod{},
		HostKeyCallback: c.HostKeyCheck,
		Timeout:         c.Timeout,
	}

	if c.Password != "" {
		config.Auth = append(config.Auth, ssh.Password(c.Password))
	}

	if c.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(c.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}

		config.Auth = append(config.Auth, ssh.PublicKeys(signer))
	}

	return config, nil
}

// DefaultKnownHosts verifies host keys against ~/.ssh/known_hosts.
func DefaultKnownHosts() (ssh.HostKeyCallback, error) {
	return knownhosts.New(filepath.Join(homeDir(), ".ssh", "known_hosts"))
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}

	return os.Getenv("HOME")
}
