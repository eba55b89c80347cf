package docker

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/fileutil"
)

// Upload copies a local file or directory into the container.
func (a *Agent) Upload(ctx context.Context, localPath, remotePath string, opts ...agent.FileOption) error {
	if a.isClosed() {
		return fmt.Errorf("cannot upload files: %w", agent.ErrAgentClosed)
	}

	cfg := agent.NewFileConfig(opts...)

	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}

	if info.IsDir() && !cfg.Recursive {
		return fmt.Errorf("cannot upload directory %s: recursive copy disabled", localPath)
	}

	var total int64
	if !info.IsDir() {
		total = info.Size()
	}

	root, entry := splitContainerPath(a.Platform(), remotePath)

	stream := tarArchive(localPath, entry, cfg.Permissions)

	defer func() { _ = stream.Close() }()

	err = a.client.CopyToContainer(ctx, a.config.ContainerID, root, fileutil.Wrap(ctx, stream, total, cfg),
		container.CopyToContainerOptions{AllowOverwriteDirWithFile: true})
	if err != nil {
		return fmt.Errorf("failed to copy to container: %w", err)
	}

	return nil
}

// Download copies a file or directory out of the container to localPath.
func (a *Agent) Download(ctx context.Context, remotePath, localPath string, opts ...agent.FileOption) error {
	if a.isClosed() {
		return fmt.Errorf("cannot download files: %w", agent.ErrAgentClosed)
	}

	cfg := agent.NewFileConfig(opts...)

	reader, stat, err := a.client.CopyFromContainer(ctx, a.config.ContainerID, remotePath)
	if err != nil {
		return fmt.Errorf("failed to copy from container: %w", err)
	}

	defer func() { _ = reader.Close() }()

	if stat.Mode.IsDir() && !cfg.Recursive {
		return fmt.Errorf("cannot download directory %s: recursive copy disabled", remotePath)
	}

	return untar(fileutil.Wrap(ctx, reader, stat.Size, cfg), localPath, cfg.Permissions)
}

// MkdirAll creates dir and any missing parents inside the container.
func (a *Agent) MkdirAll(ctx context.Context, dir string) error {
	if _, err := a.output(ctx, mkdirCommand(a.Platform(), dir)); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return nil
}

// Remove deletes target and everything below it. A missing target is not an error.
func (a *Agent) Remove(ctx context.Context, target string) error {
	if _, err := a.output(ctx, removeCommand(a.Platform(), target)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", target, err)
	}

	return nil
}

// tarArchive streams src as a tar archive whose root entry is named destName.
func tarArchive(src, destName string, mode os.FileMode) io.ReadCloser {
	r, w := io.Pipe()

	go func() {
		tw := tar.NewWriter(w)

		err := filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}

			return writeTarEntry(tw, p, info, path.Join(destName, filepath.ToSlash(rel)), mode)
		})
		if err == nil {
			err = tw.Close()
		}

		_ = w.CloseWithError(err)
	}()

	return r
}

func writeTarEntry(tw *tar.Writer, src string, info os.FileInfo, name string, mode os.FileMode) error {
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}

	header.Name = name

	if mode != 0 && info.Mode().IsRegular() {
		header.Mode = int64(mode.Perm())
	}

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = f.Close() }()

	_, err = io.Copy(tw, f)

	return err
}

// untar extracts an archive produced by CopyFromContainer. The archive root
// is renamed to dst.
func untar(r io.Reader, dst string, mode os.FileMode) error {
	tr := tar.NewReader(r)

	first, err := tr.Next()
	if errors.Is(err, io.EOF) {
		return nil
	}

	if err != nil {
		return err
	}

	root := strings.TrimSuffix(first.Name, "/")

	if first.Typeflag == tar.TypeReg {
		return extractFile(dst, tr, fileMode(first, mode))
	}

	for header := first; ; {
		rel := strings.TrimPrefix(strings.TrimPrefix(header.Name, root), "/")
		target := filepath.Join(dst, filepath.FromSlash(rel))

		if err := fileutil.CheckPathTraversal(dst, target); err != nil {
			return fmt.Errorf("illegal file path in tar: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := extractFile(target, tr, fileMode(header, mode)); err != nil {
				return err
			}
		}

		header, err = tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}

func fileMode(h *tar.Header, override os.FileMode) os.FileMode {
	if override != 0 {
		return override
	}

	return os.FileMode(h.Mode).Perm()
}

func extractFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return os.Chmod(target, mode)
}
