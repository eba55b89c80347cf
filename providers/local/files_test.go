package local

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ruffel/submitjcl/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTransfer(t *testing.T) {
	t.Parallel()

	ag, err := New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = ag.Close() })

	ctx := context.Background()

	tmpDir := t.TempDir()
	srcFile := filepath.Join(tmpDir, "source.jcl")
	dstFile := filepath.Join(tmpDir, "ws", "jcl1.txt")
	content := []byte("//JOB1 JOB (ACCT),'TEST'")

	require.NoError(t, os.WriteFile(srcFile, content, 0o644))

	t.Run("upload creates parents and applies mode", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, ag.Upload(ctx, srcFile, dstFile, agent.WithPermissions(0o600)))

		readContent, err := os.ReadFile(dstFile)
		require.NoError(t, err)
		assert.Equal(t, content, readContent)

		if runtime.GOOS != "windows" {
			info, err := os.Stat(dstFile)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
		}
	})

	t.Run("download reports progress", func(t *testing.T) {
		t.Parallel()

		downloadSrc := filepath.Join(tmpDir, "versions.xml")
		require.NoError(t, os.WriteFile(downloadSrc, content, 0o644))

		var last int64

		downloadDst := filepath.Join(tmpDir, "downloaded.xml")
		require.NoError(t, ag.Download(ctx, downloadSrc, downloadDst, agent.WithProgress(func(current, _ int64) {
			last = current
		})))

		readContent, err := os.ReadFile(downloadDst)
		require.NoError(t, err)
		assert.Equal(t, content, readContent)
		assert.Equal(t, int64(len(content)), last)
	})

	t.Run("recursive directory", func(t *testing.T) {
		t.Parallel()

		srcDir := filepath.Join(tmpDir, "src_tree")
		dstDir := filepath.Join(tmpDir, "dst_tree")

		require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "sub"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, "sub", "file.txt"), content, 0o644))

		require.NoError(t, ag.Upload(ctx, srcDir, dstDir))

		readContent, err := os.ReadFile(filepath.Join(dstDir, "sub", "file.txt"))
		require.NoError(t, err)
		assert.Equal(t, content, readContent)
	})
}

func TestMkdirAllAndRemove(t *testing.T) {
	t.Parallel()

	ag, err := New()
	require.NoError(t, err)

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "ws", "TopazCliWkspc", "run1")

	require.NoError(t, ag.MkdirAll(ctx, dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "log.txt"), []byte("x"), 0o644))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, ag.Remove(ctx, dir))

	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, ag.Remove(ctx, dir), "removing a missing path is not an error")
}

func TestFileTransfer_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tmpDir := t.TempDir()
	srcFile := filepath.Join(tmpDir, "source.txt")
	dstFile := filepath.Join(tmpDir, "dest.txt")

	require.NoError(t, os.WriteFile(srcFile, []byte("content"), 0o644))

	t.Run("recursive disabled for directories", func(t *testing.T) {
		t.Parallel()

		ag, err := New()
		require.NoError(t, err)

		srcDir := filepath.Join(tmpDir, "src_tree")
		require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "sub"), 0o755))

		err = ag.Upload(ctx, srcDir, filepath.Join(tmpDir, "dst_tree"), func(cfg *agent.FileConfig) { cfg.Recursive = false })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "recursive directory upload is disabled")
	})

	t.Run("operations fail when agent is closed", func(t *testing.T) {
		t.Parallel()

		ag, err := New()
		require.NoError(t, err)

		_ = ag.Close()

		require.ErrorIs(t, ag.Upload(ctx, srcFile, dstFile), agent.ErrAgentClosed)
		require.ErrorIs(t, ag.MkdirAll(ctx, tmpDir), agent.ErrAgentClosed)
		require.ErrorIs(t, ag.Remove(ctx, dstFile), agent.ErrAgentClosed)
	})
}
