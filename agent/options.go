package agent

import (
	"os"
)

// FileConfig holds the settings applied to a single Upload or Download.
type FileConfig struct {
	// Permissions overrides the destination mode. Zero keeps the source mode.
	Permissions os.FileMode
	// Recursive allows directory trees to be copied.
	Recursive bool
	Progress  ProgressFunc
}

// NewFileConfig applies opts on top of the defaults.
func NewFileConfig(opts ...FileOption) FileConfig {
	cfg := FileConfig{Recursive: true}

	for _, o := range opts {
		o(&cfg)
	}

	return cfg
}

// FileOption defines a functional option for file transfers.
type FileOption func(*FileConfig)

// WithPermissions forces specific destination file mode.
func WithPermissions(mode os.FileMode) FileOption {
	return func(c *FileConfig) {
		c.Permissions = mode
	}
}

// ProgressFunc receives the number of bytes copied so far and the total, if known.
type ProgressFunc func(current, total int64)

// WithProgress calls fn with progress updates.
func WithProgress(fn ProgressFunc) FileOption {
	return func(c *FileConfig) {
		c.Progress = fn
	}
}
