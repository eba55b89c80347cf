package docker

import (
	"errors"
	"net/http"

	"github.com/docker/docker/client"
	"github.com/ruffel/submitjcl/agent"
)

// Config holds the parameters for reaching a container build agent.
type Config struct {
	// ContainerID is the container (name or ID) that acts as the agent.
	ContainerID string

	// Host is the Docker daemon address, e.g. "unix:///var/run/docker.sock".
	// Empty falls back to DOCKER_HOST.
	Host string
	// Version pins the API version. Empty negotiates.
	Version    string
	HTTPClient *http.Client

	// OS is the container operating system (default OSLinux).
	OS agent.Platform
}

// NewConfig creates a configuration for a target container.
func NewConfig(containerID string) Config {
	return Config{
		ContainerID: containerID,
	}
}

// Validate checks if the minimal required configuration is present.
func (c Config) Validate() error {
	if c.ContainerID == "" {
		return errors.New("configuration error: container id is required")
	}

	return nil
}

// ClientOpts converts the Config into Docker client options.
func (c Config) ClientOpts() []client.Opt {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}

	if c.Host != "" {
		opts = append(opts, client.WithHost(c.Host))
	}

	if c.Version != "" {
		opts = append(opts, client.WithVersion(c.Version))
	}

	if c.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(c.HTTPClient))
	}

	return opts
}
