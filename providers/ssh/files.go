package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"

	"github.com/pkg/sftp"
	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/fileutil"
)

// withSFTP runs fn with a short-lived SFTP client on the shared connection.
func (a *Agent) withSFTP(op string, fn func(*sftp.Client) error) error {
	client, err := a.acquire()
	if err != nil {
		return fmt.Errorf("cannot %s: %w", op, err)
	}

	defer a.decrementActive()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return fmt.Errorf("failed to create sftp client: %w", err)
	}

	defer func() { _ = sftpClient.Close() }()

	return fn(sftpClient)
}

// sftpPath converts an agent-native path to the form SFTP servers expect.
// Windows OpenSSH serves drive paths as /C:/dir.
func (a *Agent) sftpPath(p string) string {
	if a.config.OS != agent.OSWindows {
		return p
	}

	p = strings.ReplaceAll(p, `\`, "/")
	if len(p) >= 2 && p[1] == ':' {
		p = "/" + p
	}

	return p
}

// Upload copies a local file/dir to the agent using SFTP.
func (a *Agent) Upload(ctx context.Context, localPath, remotePath string, opts ...agent.FileOption) error {
	cfg := agent.NewFileConfig(opts...)

	return a.withSFTP("upload files", func(c *sftp.Client) error {
		info, err := os.Stat(localPath)
		if err != nil {
			return err
		}

		remote := a.sftpPath(remotePath)

		if info.IsDir() {
			if !cfg.Recursive {
				return errors.New("recursive directory upload is disabled by configuration")
			}

			return uploadDir(ctx, c, localPath, remote, cfg)
		}

		mode := info.Mode()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return uploadFile(ctx, c, localPath, remote, mode, cfg)
	})
}

func uploadDir(ctx context.Context, c *sftp.Client, localBase, remoteBase string, cfg agent.FileConfig) error {
	return filepath.Walk(localBase, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(localBase, path)
		if err != nil {
			return err
		}

		remotePath := pathpkg.Join(remoteBase, filepath.ToSlash(relPath))

		if info.IsDir() {
			return c.MkdirAll(remotePath)
		}

		mode := info.Mode()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return uploadFile(ctx, c, path, remotePath, mode, cfg)
	})
}

func uploadFile(ctx context.Context, c *sftp.Client, localPath, remotePath string, mode os.FileMode, cfg agent.FileConfig) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	var size int64
	if info, err := src.Stat(); err == nil {
		size = info.Size()
	}

	if err := c.MkdirAll(pathpkg.Dir(remotePath)); err != nil {
		return fmt.Errorf("failed to create remote directory for %q: %w", remotePath, err)
	}

	dst, err := c.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("failed to create remote file %q: %w", remotePath, err)
	}

	defer func() { _ = dst.Close() }()

	if err := c.Chmod(remotePath, mode); err != nil {
		return fmt.Errorf("failed to chmod remote file: %w", err)
	}

	if _, err := io.Copy(dst, fileutil.Wrap(ctx, src, size, cfg)); err != nil {
		return err
	}

	return dst.Close()
}

// Download copies a file/dir from the agent to the local path using SFTP.
func (a *Agent) Download(ctx context.Context, remotePath, localPath string, opts ...agent.FileOption) error {
	cfg := agent.NewFileConfig(opts...)

	return a.withSFTP("download files", func(c *sftp.Client) error {
		remote := a.sftpPath(remotePath)

		info, err := c.Stat(remote)
		if err != nil {
			return err
		}

		if info.IsDir() {
			return downloadDir(ctx, c, remote, localPath, cfg)
		}

		mode := info.Mode()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return downloadFile(ctx, c, remote, localPath, mode, cfg)
	})
}

func downloadDir(ctx context.Context, c *sftp.Client, remoteBase, localBase string, cfg agent.FileConfig) error {
	walker := c.Walk(remoteBase)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return err
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(walker.Path(), pathpkg.Clean(remoteBase)), "/")
		localPath := filepath.Join(localBase, filepath.FromSlash(rel))

		if err := fileutil.CheckPathTraversal(localBase, localPath); err != nil {
			return err
		}

		info := walker.Stat()

		if info.IsDir() {
			if err := os.MkdirAll(localPath, 0o755); err != nil {
				return err
			}

			continue
		}

		mode := info.Mode()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		if err := downloadFile(ctx, c, walker.Path(), localPath, mode, cfg); err != nil {
			return err
		}
	}

	return nil
}

func downloadFile(ctx context.Context, c *sftp.Client, remotePath, localPath string, mode os.FileMode, cfg agent.FileConfig) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	src, err := c.Open(remotePath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	var size int64
	if info, err := src.Stat(); err == nil {
		size = info.Size()
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = dst.Close() }()

	if err := os.Chmod(localPath, mode.Perm()); err != nil {
		return fmt.Errorf("failed to chmod local file: %w", err)
	}

	if _, err := io.Copy(dst, fileutil.Wrap(ctx, src, size, cfg)); err != nil {
		return err
	}

	return dst.Close()
}

// MkdirAll creates path on the agent along with any missing parents.
func (a *Agent) MkdirAll(_ context.Context, path string) error {
	return a.withSFTP("create directory", func(c *sftp.Client) error {
		return c.MkdirAll(a.sftpPath(path))
	})
}

// Remove deletes a file or directory tree on the agent. Missing paths are ignored.
func (a *Agent) Remove(ctx context.Context, path string) error {
	return a.withSFTP("remove path", func(c *sftp.Client) error {
		return removeTree(ctx, c, a.sftpPath(path))
	})
}

func removeTree(ctx context.Context, c *sftp.Client, path string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	info, err := c.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	if !info.IsDir() {
		return c.Remove(path)
	}

	entries, err := c.ReadDir(path)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := removeTree(ctx, c, pathpkg.Join(path, e.Name())); err != nil {
			return err
		}
	}

	return c.RemoveDirectory(path)
}
