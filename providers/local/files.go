package local

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ruffel/submitjcl/agent"
)

// Upload copies a local file/dir to the destination path (also local).
func (a *Agent) Upload(ctx context.Context, localPath, remotePath string, opts ...agent.FileOption) error {
	if a.isClosed() {
		return fmt.Errorf("cannot upload files: %w", agent.ErrAgentClosed)
	}

	cfg := agent.NewFileConfig(opts...)

	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if !cfg.Recursive {
			return errors.New("recursive directory upload is disabled by configuration")
		}

		return copyDir(ctx, localPath, remotePath, cfg)
	}

	mode := info.Mode()
	if cfg.Permissions != 0 {
		mode = cfg.Permissions
	}

	return copyFile(ctx, localPath, remotePath, mode, cfg)
}

// Download copies a file/dir to the destination path. Locally this is symmetric to Upload.
func (a *Agent) Download(ctx context.Context, remotePath, localPath string, opts ...agent.FileOption) error {
	if a.isClosed() {
		return fmt.Errorf("cannot download files: %w", agent.ErrAgentClosed)
	}

	return a.Upload(ctx, remotePath, localPath, opts...)
}

// MkdirAll creates path and any missing parents.
func (a *Agent) MkdirAll(_ context.Context, path string) error {
	if a.isClosed() {
		return fmt.Errorf("cannot create directory: %w", agent.ErrAgentClosed)
	}

	return os.MkdirAll(path, 0o755)
}

// Remove deletes path and, for directories, everything below it.
func (a *Agent) Remove(_ context.Context, path string) error {
	if a.isClosed() {
		return fmt.Errorf("cannot remove path: %w", agent.ErrAgentClosed)
	}

	return os.RemoveAll(path)
}
