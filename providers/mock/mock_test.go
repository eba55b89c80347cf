package mock

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruffel/submitjcl/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMockAgent(t *testing.T) {
	t.Parallel()

	m := New()
	ctx := context.Background()

	expectedRes := &agent.Result{ExitCode: 0}
	m.On("Run", ctx, mock.AnythingOfType("*agent.Command")).Return(expectedRes, nil)
	m.On("Platform").Return(agent.OSWindows)
	m.On("MkdirAll", ctx, `C:\ws`).Return(nil)

	res, err := m.Run(ctx, &agent.Command{Cmd: "SubmitJclCLI.bat"})
	require.NoError(t, err)
	assert.Equal(t, expectedRes, res)
	assert.Equal(t, agent.OSWindows, m.Platform())
	require.NoError(t, m.MkdirAll(ctx, `C:\ws`))

	m.AssertExpectations(t)
}

func TestCaptureUploadAndServeDownload(t *testing.T) {
	t.Parallel()

	m := New()
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("//JOB1 JOB"), 0o600))

	var uploaded []byte

	m.On("Upload", ctx, src, "/ws/jcl.txt", mock.Anything).Run(CaptureUpload(&uploaded)).Return(nil)
	m.On("Download", ctx, "/cli/versions.xml", mock.Anything, mock.Anything).
		Run(ServeDownload([]byte("<versions/>"))).Return(nil)

	require.NoError(t, m.Upload(ctx, src, "/ws/jcl.txt"))
	assert.Equal(t, "//JOB1 JOB", string(uploaded))

	dst := filepath.Join(t.TempDir(), "versions.xml")
	require.NoError(t, m.Download(ctx, "/cli/versions.xml", dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "<versions/>", string(data))
}
