package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/fileutil"
)

func copyDir(ctx context.Context, src, dst string, cfg agent.FileConfig) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		targetPath := filepath.Join(dst, relPath)

		if err := fileutil.CheckPathTraversal(dst, targetPath); err != nil {
			return err
		}

		if info.IsDir() {
			return os.MkdirAll(targetPath, info.Mode())
		}

		mode := info.Mode()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return copyFile(ctx, path, targetPath, mode, cfg)
	})
}

func copyFile(ctx context.Context, src, dst string, mode os.FileMode, cfg agent.FileConfig) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	var size int64
	if info, err := sourceFile.Stat(); err == nil {
		size = info.Size()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	defer func() { _ = destFile.Close() }()

	if _, err := io.Copy(destFile, fileutil.Wrap(ctx, sourceFile, size, cfg)); err != nil {
		return err
	}

	// OpenFile only applies mode to new files.
	if err := destFile.Chmod(mode); err != nil {
		return err
	}

	if err := destFile.Sync(); err != nil {
		return err
	}

	return destFile.Close()
}
