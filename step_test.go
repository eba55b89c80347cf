package submitjcl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/cliversion"
	"github.com/ruffel/submitjcl/directory"
	"github.com/ruffel/submitjcl/providers/local"
	"github.com/ruffel/submitjcl/providers/mock"
	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeCLI records its arguments, echoes the JCL file and the password it
// was given, then exits with $SUBMITJCL_EXIT.
const fakeCLI = `#!/bin/sh
printf '%s\n' "$@" > "$SUBMITJCL_ARGS_FILE"
echo "Logging on to $2 as $6 with $8"
data=$(printf '%s' "${14}" | tr -d '"')
mkdir -p "$data" && echo running > "$data/cli.log"
if [ "${17}" = "-jcl" ]; then
  jcl=$(printf '%s' "${18}" | tr -d '"')
  echo "JCL file: $(cat "$jcl")"
fi
pw=$(printf '%s' "$8" | tr -d '"')
echo "stderr sees $pw" >&2
if [ -n "$SUBMITJCL_SLEEP" ]; then
  sleep "$SUBMITJCL_SLEEP"
fi
exit "${SUBMITJCL_EXIT:-0}"
`

const testPassword = "s3cr3t"

type stepFixture struct {
	step      *Step
	workspace string
	cliDir    string
	argsFile  string
	agent     *local.Agent
}

func newStepFixture(t *testing.T, kind PayloadKind, text, cliVersion string) stepFixture {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake CLI is a POSIX shell script")
	}

	cliDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cliDir, ScriptUnix), []byte(fakeCLI), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cliDir, cliversion.ManifestFile),
		[]byte(`<?xml version="1.0"?><versions version="`+cliVersion+`"/>`), 0o600))

	dir, err := directory.NewStatic(
		[]directory.HostConnection{{ID: "cw01", Host: "cw01.example.com", Port: "16196", CodePage: "1047", Timeout: 0}},
		[]directory.Credential{{ID: "deploy", Username: "USER01", Password: testPassword}},
		directory.CLILocations{Unix: cliDir},
	)
	require.NoError(t, err)

	req, err := NewRequest("cw01", "deploy", "4", kind, text)
	require.NoError(t, err)

	ag, err := local.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = ag.Close() })

	return stepFixture{
		step: &Step{
			Request:      req,
			Connections:  dir,
			Credentials:  dir,
			CLI:          dir,
			Materializer: Materializer{NewID: func() string { return "run1" }},
		},
		workspace: t.TempDir(),
		cliDir:    cliDir,
		argsFile:  filepath.Join(t.TempDir(), "args.txt"),
		agent:     ag,
	}
}

func (f stepFixture) build(env ...string) Build {
	return Build{Project: "payroll", Env: append([]string{"SUBMITJCL_ARGS_FILE=" + f.argsFile}, env...)}
}

func (f stepFixture) recordedArgs(t *testing.T) []string {
	t.Helper()

	data, err := os.ReadFile(f.argsFile)
	require.NoError(t, err)

	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestStep_InlineJCL(t *testing.T) {
	t.Parallel()

	f := newStepFixture(t, InlineJCL, "//JOB1 JOB\n//S1 EXEC PGM=IEFBR14", "20.01.01")

	var log strings.Builder

	require.NoError(t, f.step.Perform(context.Background(), f.build(), f.workspace, f.agent, &log))

	jclPath := filepath.Join(f.workspace, "jclrun1.txt")
	workDir := filepath.Join(f.workspace, CLIWorkspaceDir, "run1")

	args := f.recordedArgs(t)
	require.Len(t, args, 18)
	assert.Equal(t, []string{"-host", `"cw01.example.com"`}, args[0:2])
	assert.Equal(t, []string{"-code", "1047"}, args[8:10])
	assert.Equal(t, []string{"-timeout", `"0"`}, args[10:12])
	assert.Equal(t, []string{"-data", `"` + workDir + `"`}, args[12:14])
	assert.Equal(t, []string{"-maxcc", `"4"`}, args[14:16])
	assert.Equal(t, []string{"-jcl", `"` + jclPath + `"`}, args[16:18])

	out := log.String()
	assert.Contains(t, out, "cliScriptFile: "+filepath.Join(f.cliDir, ScriptUnix)+"\n")
	assert.Contains(t, out, "topazCliWorkspace: "+workDir+"\n")
	assert.Contains(t, out, "-pass "+agent.Mask+" -code 1047")
	assert.Contains(t, out, "JCL file: //JOB1 JOB")
	assert.Contains(t, out, "Logging on to \"cw01.example.com\" as \"USER01\" with "+agent.Mask)
	assert.Contains(t, out, "stderr sees "+agent.Mask)
	assert.True(t, strings.HasSuffix(out, "Call SubmitJclCLI.sh exited with value = 0\n"))
	assert.NotContains(t, out, testPassword)
	assert.NotContains(t, out, "jclMember:")

	assert.NoFileExists(t, jclPath)
	assert.NoDirExists(t, workDir)
}

func TestStep_MemberList(t *testing.T) {
	t.Parallel()

	f := newStepFixture(t, MemberList, "A.B.MYJCL\nA.B.MYJCL2\nMYJCL(JCLMEM3)", "18.02.01")

	var log strings.Builder

	require.NoError(t, f.step.Perform(context.Background(), f.build(), f.workspace, f.agent, &log))

	args := f.recordedArgs(t)
	require.Len(t, args, 18)
	assert.Equal(t, []string{"-jcldsns", `"A.B.MYJCL,A.B.MYJCL2,MYJCL(JCLMEM3)"`}, args[16:18])
	assert.Contains(t, log.String(), `jclMember: "A.B.MYJCL,A.B.MYJCL2,MYJCL(JCLMEM3)"`+"\n")

	entries, err := os.ReadDir(f.workspace)
	require.NoError(t, err)

	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "jcl"), "unexpected file %s", e.Name())
	}
}

func TestStep_NonZeroExit(t *testing.T) {
	t.Parallel()

	f := newStepFixture(t, InlineJCL, "//JOB1 JOB", "20.01.01")

	var log strings.Builder

	err := f.step.Perform(context.Background(), f.build("SUBMITJCL_EXIT=12"), f.workspace, f.agent, &log)
	require.ErrorIs(t, err, ErrNonZeroExit)

	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, 12, abort.ExitCode)
	assert.Contains(t, err.Error(), "12")
	assert.Contains(t, err.Error(), ScriptUnix)

	assert.NotContains(t, log.String(), "exited with value")
	assert.NoFileExists(t, filepath.Join(f.workspace, "jclrun1.txt"))
	assert.NoDirExists(t, filepath.Join(f.workspace, CLIWorkspaceDir, "run1"))
}

func TestStep_CancelledStillCleansUp(t *testing.T) {
	t.Parallel()

	f := newStepFixture(t, InlineJCL, "//JOB1 JOB", "20.01.01")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := f.step.Perform(ctx, f.build("SUBMITJCL_SLEEP=30"), f.workspace, f.agent, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.NoFileExists(t, filepath.Join(f.workspace, "jclrun1.txt"))
	assert.NoDirExists(t, filepath.Join(f.workspace, CLIWorkspaceDir, "run1"))
}

func TestStep_VersionTooOld(t *testing.T) {
	t.Parallel()

	f := newStepFixture(t, InlineJCL, "//JOB1 JOB", "17.01.01")

	var log strings.Builder

	err := f.step.Perform(context.Background(), f.build(), f.workspace, f.agent, &log)
	require.ErrorIs(t, err, cliversion.ErrIncompatibleVersion)
	assert.EqualError(t, err, "The Topaz CLI version must be 18.02.01 or higher; installed version: 17.01.01")

	assert.NoFileExists(t, f.argsFile)
	assert.Empty(t, log.String())

	entries, err := os.ReadDir(f.workspace)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStep_Unresolved(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(s *Step, b *Build)
		target  error
		message string
	}{
		{
			name:    "connection",
			mutate:  func(s *Step, _ *Build) { s.Request.ConnectionID = "cw99" },
			target:  directory.ErrConnectionNotFound,
			message: `unable to resolve host connection "cw99"`,
		},
		{
			name:    "credentials",
			mutate:  func(s *Step, _ *Build) { s.Request.CredentialsID = "nobody" },
			target:  directory.ErrCredentialNotFound,
			message: `unable to resolve credentials "nobody"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newStepFixture(t, InlineJCL, "//JOB1 JOB", "20.01.01")
			b := f.build()
			tt.mutate(f.step, &b)

			err := f.step.Perform(context.Background(), b, f.workspace, f.agent, nil)

			var unresolved *UnresolvedError
			require.ErrorAs(t, err, &unresolved)
			require.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), tt.message)
			assert.NoFileExists(t, f.argsFile)
		})
	}
}

func TestStep_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	m := mock.New()

	s := &Step{Request: Request{Kind: InlineJCL}}
	err := s.Perform(context.Background(), Build{}, "/ws", m, nil)
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	s.Request = Request{ConnectionID: "cw01", CredentialsID: "deploy", MaxConditionCode: "4", Text: "//J JOB"}
	err = s.Perform(context.Background(), Build{}, "", m, nil)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "workspace is required")

	m.AssertExpectations(t)
}

func (f stepFixture) withPassword(t *testing.T, password string) {
	t.Helper()

	creds, err := directory.NewStatic(nil, []directory.Credential{{ID: "deploy", Username: "USER01", Password: password}}, directory.CLILocations{})
	require.NoError(t, err)

	f.step.Credentials = creds
}

func TestStep_PasswordKeepsSurroundingSpaces(t *testing.T) {
	t.Parallel()

	f := newStepFixture(t, MemberList, "A.B.MYJCL", "20.01.01")
	f.withPassword(t, "  s3 cr3t ")

	var log strings.Builder

	require.NoError(t, f.step.Perform(context.Background(), f.build(), f.workspace, f.agent, &log))

	args := f.recordedArgs(t)
	require.Len(t, args, 18)
	assert.Equal(t, []string{"-pass", `"  s3 cr3t "`}, args[6:8])

	out := log.String()
	assert.Contains(t, out, "stderr sees "+agent.Mask)
	assert.NotContains(t, out, "s3 cr3t")
}

func TestStep_MultiLinePasswordRejected(t *testing.T) {
	t.Parallel()

	f := newStepFixture(t, InlineJCL, "//JOB1 JOB", "20.01.01")
	f.withPassword(t, "s3cr3t\n")

	err := f.step.Perform(context.Background(), f.build(), f.workspace, f.agent, nil)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), `credentials "deploy": password contains a line break`)

	assert.NoFileExists(t, f.argsFile)

	entries, err := os.ReadDir(f.workspace)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStep_UnusualMemberStillSubmitted(t *testing.T) {
	t.Parallel()

	f := newStepFixture(t, MemberList, "'A.B.MYJCL'\nMYJCL(JCLMEM3)", "20.01.01")

	require.NoError(t, f.step.Perform(context.Background(), f.build(), f.workspace, f.agent, nil))

	args := f.recordedArgs(t)
	require.Len(t, args, 18)
	assert.Equal(t, []string{"-jcldsns", `"'A.B.MYJCL',MYJCL(JCLMEM3)"`}, args[16:18])
}

func TestStep_WindowsAgent(t *testing.T) {
	t.Parallel()

	m := mock.New()

	var uploaded []byte

	m.On("Platform").Return(agent.OSWindows)
	m.On("Download", testifymock.Anything, `C:\TopazCLI\versions.xml`, testifymock.Anything, testifymock.Anything).
		Run(mock.ServeDownload([]byte(`<versions version="20.04.01"/>`))).Return(nil)
	m.On("MkdirAll", testifymock.Anything, `C:\ws`).Return(nil)
	m.On("Upload", testifymock.Anything, testifymock.Anything, `C:\ws\jcljob-1.txt`, testifymock.Anything).
		Run(mock.CaptureUpload(&uploaded)).Return(nil)
	m.On("Remove", testifymock.Anything, `C:\ws\jcljob-1.txt`).Return(nil).Once()
	m.On("Remove", testifymock.Anything, `C:\ws\TopazCliWkspc\job-1`).Return(nil).Once()

	started := expectRun(m, "Submitting with \"pa\"\"ss%\"\n", "", nil, 0)

	dir, err := directory.NewStatic(
		[]directory.HostConnection{{ID: "cw01", Host: "cw01", Port: "16196", CodePage: "1140", Timeout: 60}},
		[]directory.Credential{{ID: "deploy", Username: "USER01", Password: `pa"ss%`, Scopes: []string{"payroll"}}},
		directory.CLILocations{Windows: `C:\TopazCLI`},
	)
	require.NoError(t, err)

	s := &Step{
		Request: Request{
			ConnectionID:     "cw01",
			CredentialsID:    "deploy",
			MaxConditionCode: "8",
			Kind:             InlineJCL,
			Text:             "//JOB1 JOB",
		},
		Connections:  dir,
		Credentials:  dir,
		CLI:          dir,
		Materializer: Materializer{NewID: func() string { return "job-1" }},
	}

	var log strings.Builder

	require.NoError(t, s.Perform(context.Background(), Build{Project: "payroll"}, `C:\ws`, m, &log))

	cmd := *started
	assert.Equal(t, `C:\TopazCLI\SubmitJclCLI.bat`, cmd.Cmd)
	assert.Equal(t, []string{
		"-host", `"cw01"`,
		"-port", `"16196"`,
		"-id", `"USER01"`,
		"-pass", `"pa""ss%"`,
		"-code", "1140",
		"-timeout", `"60"`,
		"-data", `"C:\ws\TopazCliWkspc\job-1"`,
		"-maxcc", `"8"`,
		"-jcl", `"C:\ws\jcljob-1.txt"`,
	}, cmd.Args)
	assert.Equal(t, []int{7}, cmd.Masked)
	assert.Equal(t, `C:\ws`, cmd.Dir)
	assert.Equal(t, "//JOB1 JOB", string(uploaded))

	out := log.String()
	assert.Contains(t, out, `cliScriptFile: C:\TopazCLI\SubmitJclCLI.bat`)
	assert.Contains(t, out, "Submitting with "+agent.Mask)
	assert.Contains(t, out, "Call SubmitJclCLI.bat exited with value = 0")
	assert.NotContains(t, out, "pa\"\"ss")

	m.AssertExpectations(t)
}

func TestStep_GateFailureHasNoSideEffects(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.On("Platform").Return(agent.OSLinux)
	m.On("Download", testifymock.Anything, "/opt/TopazCLI/versions.xml", testifymock.Anything, testifymock.Anything).
		Return(errors.New("no such file"))

	dir, err := directory.NewStatic(nil, nil, directory.CLILocations{Unix: "/opt/TopazCLI"})
	require.NoError(t, err)

	s := &Step{
		Request:     Request{ConnectionID: "cw01", CredentialsID: "deploy", MaxConditionCode: "4", Text: "//J JOB"},
		Connections: dir,
		Credentials: dir,
		CLI:         dir,
	}

	err = s.Perform(context.Background(), Build{}, "/ws", m, nil)
	require.ErrorIs(t, err, cliversion.ErrIncompatibleVersion)
	assert.Contains(t, err.Error(), "installed version: unknown")

	m.AssertNotCalled(t, "MkdirAll", testifymock.Anything, testifymock.Anything)
	m.AssertNotCalled(t, "Upload", testifymock.Anything, testifymock.Anything, testifymock.Anything, testifymock.Anything)
	m.AssertNotCalled(t, "Start", testifymock.Anything, testifymock.Anything)
}

func TestStep_CLINotConfigured(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.On("Platform").Return(agent.OSWindows)

	dir, err := directory.NewStatic(nil, nil, directory.CLILocations{Unix: "/opt/TopazCLI"})
	require.NoError(t, err)

	s := &Step{
		Request: Request{ConnectionID: "cw01", CredentialsID: "deploy", MaxConditionCode: "4", Text: "//J JOB"},
		CLI:     dir,
	}

	err = s.Perform(context.Background(), Build{}, `C:\ws`, m, nil)
	require.ErrorIs(t, err, directory.ErrCLINotConfigured)
}
