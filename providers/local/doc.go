// Package local provides an implementation of the agent.Agent interface for
// the machine the controller itself runs on.
//
// It wraps "os/exec" and "os". Commands inherit the controller's environment
// with Command.Env appended, and each command runs in its own process group so
// that cancelling a build also stops any children the CLI script spawned.
//
// Usage:
//
//	ag, _ := local.New()
//	res, _ := ag.Run(ctx, &agent.Command{Cmd: "echo", Args: []string{"hello"}})
//	_ = res
package local
