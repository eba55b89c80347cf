// Package docker runs build steps inside an existing container, treating it
// as a build agent.
//
// Commands are executed through the Engine API exec endpoints. Non-TTY output
// is demultiplexed into stdout and stderr. Files move as tar streams through
// the container archive endpoints, so the container needs no extra tooling
// for Upload and Download.
//
// Usage:
//
//	ag, err := docker.New(docker.NewConfig("zos-build-agent"))
package docker
