package docker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ruffel/submitjcl/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExecConfig(t *testing.T) {
	t.Parallel()

	type want struct {
		Cmd         []string
		Env         []string
		WorkingDir  string
		AttachStdin bool
		Tty         bool
	}

	tests := []struct {
		name string
		cmd  *agent.Command
		want want
	}{
		{
			name: "arguments pass through untouched",
			cmd:  agent.NewCommand("/cli/SubmitJclCLI.sh", "-host", `"cw01"`, "-pass", `"p$w"`),
			want: want{Cmd: []string{"/cli/SubmitJclCLI.sh", "-host", `"cw01"`, "-pass", `"p$w"`}},
		},
		{
			name: "with environment and dir",
			cmd: &agent.Command{
				Cmd:  "sh",
				Args: []string{"-c", "ls"},
				Env:  []string{"BUILD_ID=7"},
				Dir:  "/var/ws",
			},
			want: want{
				Cmd:        []string{"sh", "-c", "ls"},
				Env:        []string{"BUILD_ID=7"},
				WorkingDir: "/var/ws",
			},
		},
		{
			name: "interactive tty",
			cmd: &agent.Command{
				Cmd:   "bash",
				Stdin: strings.NewReader(""),
				Tty:   true,
			},
			want: want{
				Cmd:         []string{"bash"},
				AttachStdin: true,
				Tty:         true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := buildExecConfig(tt.cmd)

			assert.Equal(t, tt.want.Cmd, got.Cmd)
			assert.Equal(t, tt.want.Env, got.Env)
			assert.Equal(t, tt.want.WorkingDir, got.WorkingDir)
			assert.Equal(t, tt.want.AttachStdin, got.AttachStdin)
			assert.Equal(t, tt.want.Tty, got.Tty)
			assert.True(t, got.AttachStdout)
			assert.True(t, got.AttachStderr)
		})
	}
}

func TestBuildAttachConfig(t *testing.T) {
	t.Parallel()

	assert.False(t, buildAttachConfig(agent.NewCommand("ls")).Tty)
	assert.True(t, buildAttachConfig(&agent.Command{Cmd: "sh", Tty: true}).Tty)
}

func TestSplitContainerPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		platform  agent.Platform
		in        string
		wantRoot  string
		wantEntry string
	}{
		{"linux", agent.OSLinux, "/var/ws/jcl1.txt", "/", "var/ws/jcl1.txt"},
		{"windows drive", agent.OSWindows, `D:\ws\jcl1.txt`, "D:/", "ws/jcl1.txt"},
		{"windows rooted", agent.OSWindows, `\ws\jcl1.txt`, "C:/", "ws/jcl1.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root, entry := splitContainerPath(tt.platform, tt.in)
			assert.Equal(t, tt.wantRoot, root)
			assert.Equal(t, tt.wantEntry, entry)
		})
	}
}

func TestFileCommands(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"-p", "--", "/ws/TopazCliWkspc"}, mkdirCommand(agent.OSLinux, "/ws/TopazCliWkspc").Args)
	assert.Equal(t, []string{"-rf", "--", "/ws/TopazCliWkspc"}, removeCommand(agent.OSLinux, "/ws/TopazCliWkspc").Args)

	win := removeCommand(agent.OSWindows, `C:\ws\it's`)
	assert.Equal(t, "powershell", win.Cmd)
	assert.Contains(t, win.Args[len(win.Args)-1], `'C:\ws\it''s'`)
}

func TestTarRoundTrip(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "TopazCliWkspc")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "jcl1.txt"), []byte("//JOB1 JOB"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "out.log"), []byte("RC=0"), 0o644))

	stream := tarArchive(src, "copy", 0)

	defer func() { _ = stream.Close() }()

	dst := filepath.Join(t.TempDir(), "restored")
	require.NoError(t, untar(stream, dst, 0))

	got, err := os.ReadFile(filepath.Join(dst, "jcl1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "//JOB1 JOB", string(got))

	got, err = os.ReadFile(filepath.Join(dst, "nested", "out.log"))
	require.NoError(t, err)
	assert.Equal(t, "RC=0", string(got))
}

func TestTarSingleFileWithPermissions(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "jcl.txt")
	require.NoError(t, os.WriteFile(src, []byte("//JOB1 JOB"), 0o644))

	stream := tarArchive(src, "ws/jcl.txt", 0o600)

	defer func() { _ = stream.Close() }()

	dst := filepath.Join(t.TempDir(), "sub", "jcl.txt")
	require.NoError(t, untar(stream, dst, 0))

	info, err := os.Stat(dst)
	require.NoError(t, err)

	if agent.DetectLocalPlatform() != agent.OSWindows {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}
