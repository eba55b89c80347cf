package agenttest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ruffel/submitjcl/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPermissions = 0o600

//nolint:funlen // Contract registration function; length comes from many test cases.
func fileContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryFilesystem,
			Name:        "upload-failure-source-missing",
			Description: "Uploading a local file that does not exist fails",
			Run: func(t T, ag agent.Agent) {
				src := filepath.Join(t.TempDir(), "this-file-really-does-not-exist-12345")
				dst := ag.Platform().Join(remoteBase(t, ag), "should-not-exist-12345")

				require.Error(t, ag.Upload(t.Context(), src, dst))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "write-file-creates-parents",
			Description: "WriteFile stores content below directories that do not exist yet",
			Run: func(t T, ag agent.Agent) {
				l := agent.NewLauncher(ag)
				base := remoteBase(t, ag)
				dst := ag.Platform().Join(base, "nested", "workspace", "jcl1.txt")
				content := "//JOB1 JOB (ACCT),'CONTRACT'"

				defer func() { _ = l.Remove(t.Context(), base) }()

				require.NoError(t, l.WriteFile(t.Context(), dst, []byte(content)))

				res, err := l.RunBuffered(t.Context(), readCommand(ag, dst))
				require.NoError(t, err)
				require.Equal(t, content, strings.TrimSpace(string(res.Stdout)))

				got, err := l.ReadFile(t.Context(), dst)
				require.NoError(t, err)
				require.Equal(t, content, string(got))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "write-file-overwrites",
			Description: "Writing a shorter file over a longer one leaves no stale bytes",
			Run: func(t T, ag agent.Agent) {
				l := agent.NewLauncher(ag)
				base := remoteBase(t, ag)
				dst := ag.Platform().Join(base, "overwrite.txt")

				defer func() { _ = l.Remove(t.Context(), base) }()

				require.NoError(t, l.WriteFile(t.Context(), dst, []byte("a much longer original payload")))
				require.NoError(t, l.WriteFile(t.Context(), dst, []byte("short")))

				got, err := l.ReadFile(t.Context(), dst)
				require.NoError(t, err)
				require.Equal(t, "short", string(got))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "upload-recursive-directory",
			Description: "Upload copies a directory tree",
			Run: func(t T, ag agent.Agent) {
				srcDir := filepath.Join(t.TempDir(), "cli")
				require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "lib"), 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(srcDir, "versions.xml"), []byte("root file"), 0o644))
				require.NoError(t, os.WriteFile(filepath.Join(srcDir, "lib", "cli.jar"), []byte("sub file"), 0o644))

				l := agent.NewLauncher(ag)
				base := remoteBase(t, ag)
				dstDir := ag.Platform().Join(base, "tree")

				defer func() { _ = l.Remove(t.Context(), base) }()

				require.NoError(t, ag.Upload(t.Context(), srcDir, dstDir))

				got, err := l.ReadFile(t.Context(), ag.Platform().Join(dstDir, "versions.xml"))
				require.NoError(t, err)
				assert.Equal(t, "root file", string(got))

				got, err = l.ReadFile(t.Context(), ag.Platform().Join(dstDir, "lib", "cli.jar"))
				require.NoError(t, err)
				assert.Equal(t, "sub file", string(got))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "download-creates-local-parents",
			Description: "Download creates missing local destination parent directories",
			Run: func(t T, ag agent.Agent) {
				l := agent.NewLauncher(ag)
				base := remoteBase(t, ag)
				src := ag.Platform().Join(base, "download-source.txt")

				defer func() { _ = l.Remove(t.Context(), base) }()

				require.NoError(t, l.WriteFile(t.Context(), src, []byte("download content")))

				localPath := filepath.Join(t.TempDir(), "nested", "local", "file.txt")
				require.NoError(t, ag.Download(t.Context(), src, localPath))

				got, err := os.ReadFile(localPath)
				require.NoError(t, err)
				require.Equal(t, "download content", string(got))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "upload-respects-permissions",
			Description: "Uploaded file has the mode set by WithPermissions",
			Prereq: func(_ T, ag agent.Agent) (bool, string) {
				return ag.Platform() != agent.OSWindows, "permissions not applicable on Windows"
			},
			Run: func(t T, ag agent.Agent) {
				l := agent.NewLauncher(ag)
				base := remoteBase(t, ag)
				dst := ag.Platform().Join(base, "secret-jcl.txt")

				defer func() { _ = l.Remove(t.Context(), base) }()

				require.NoError(t, l.WriteFile(t.Context(), dst, []byte("perms"), agent.WithPermissions(testPermissions)))

				verifyPath := filepath.Join(t.TempDir(), "perms-verify.txt")
				require.NoError(t, ag.Download(t.Context(), dst, verifyPath))

				info, err := os.Stat(verifyPath)
				require.NoError(t, err)
				require.Equal(t, os.FileMode(testPermissions), info.Mode().Perm())
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "mkdirall-idempotent",
			Description: "MkdirAll creates nested directories and succeeds when they already exist",
			Run: func(t T, ag agent.Agent) {
				l := agent.NewLauncher(ag)
				base := remoteBase(t, ag)
				dir := ag.Platform().Join(base, "TopazCliWkspc", "run")

				defer func() { _ = l.Remove(t.Context(), base) }()

				require.NoError(t, ag.MkdirAll(t.Context(), dir))
				require.NoError(t, ag.MkdirAll(t.Context(), dir))

				require.NoError(t, l.WriteFile(t.Context(), ag.Platform().Join(dir, "check.txt"), []byte("ok")))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "remove-tree-and-missing",
			Description: "Remove deletes files and directory trees; missing paths are not an error",
			Run: func(t T, ag agent.Agent) {
				l := agent.NewLauncher(ag)
				base := remoteBase(t, ag)
				file := ag.Platform().Join(base, "tree", "sub", "jcl.txt")

				require.NoError(t, l.WriteFile(t.Context(), file, []byte("x")))

				require.NoError(t, ag.Remove(t.Context(), file))

				_, err := l.ReadFile(t.Context(), file)
				require.Error(t, err)

				require.NoError(t, ag.Remove(t.Context(), base))
				require.NoError(t, ag.Remove(t.Context(), base))

				_, err = l.ReadFile(t.Context(), ag.Platform().Join(base, "tree", "sub"))
				require.Error(t, err)
			},
		},
	}
}
