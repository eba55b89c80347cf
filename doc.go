// Package submitjcl submits mainframe JCL through the Topaz CLI on a build agent.
//
// A Step checks that the CLI on the agent is recent enough, then writes inline
// JCL to a temporary file in the workspace or joins a member list into a
// single token. It assembles the escaped, fixed-order SubmitJclCLI command line,
// runs it while streaming the output into the build log, and turns the exit
// code into success or an *AbortError.
//
// Usage:
//
//	req, err := submitjcl.NewRequest("cw01", "tso", "4", submitjcl.MemberList, "A.B.MYJCL\nMYJCL(JCLMEM3)")
//	if err != nil {
//		return err
//	}
//
//	step := &submitjcl.Step{
//		Request:     req,
//		Connections: dir,
//		Credentials: dir,
//		CLI:         dir,
//	}
//
//	err = step.Perform(ctx, submitjcl.Build{Project: "payroll", Env: os.Environ()}, workspace, ag, os.Stdout)
package submitjcl
