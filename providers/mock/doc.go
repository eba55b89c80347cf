// Package mock provides a controllable implementation of agent.Agent
// for testing purposes.
//
// It records every command and file operation so that code driving an agent
// can be tested without a real build machine.
//
// Usage:
//
//	m := mock.New()
//	m.On("Platform").Return(agent.OSWindows)
//	m.On("MkdirAll", mock.Anything, `C:\ws`).Return(nil)
//	// pass 'm' to the step under test
package mock
