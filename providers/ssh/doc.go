// Package ssh provides an implementation of the agent.Agent interface for build
// agents reached over SSH.
//
// Commands run in a fresh session each; file operations use SFTP on the same
// connection. Hosts may be described inline or by an alias in ~/.ssh/config.
//
// Usage:
//
//	config := ssh.NewConfig("agent01.example.com", "jenkins")
//	config.PrivateKeyPath = "/var/lib/jenkins/.ssh/id_ed25519"
//	ag, err := ssh.New(config)
package ssh
