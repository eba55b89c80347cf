package agent

import "slices"

// Builder assembles a Command one argument at a time.
type Builder struct {
	cmd Command
}

// Cmd starts a Builder for binary.
func Cmd(binary string) *Builder {
	return &Builder{cmd: Command{Cmd: binary}}
}

// Arg appends one argument.
func (b *Builder) Arg(arg string) *Builder {
	b.cmd.Args = append(b.cmd.Args, arg)

	return b
}

// Args appends several arguments.
func (b *Builder) Args(args ...string) *Builder {
	b.cmd.Args = append(b.cmd.Args, args...)

	return b
}

// Secret appends an argument that renders as Mask.
func (b *Builder) Secret(arg string) *Builder {
	b.cmd.Masked = append(b.cmd.Masked, len(b.cmd.Args))

	return b.Arg(arg)
}

// Env appends KEY=VALUE.
func (b *Builder) Env(key, value string) *Builder {
	return b.Environ([]string{key + "=" + value})
}

// Environ appends entries already in KEY=VALUE form.
func (b *Builder) Environ(env []string) *Builder {
	b.cmd.Env = append(b.cmd.Env, env...)

	return b
}

// Dir sets the working directory.
func (b *Builder) Dir(dir string) *Builder {
	b.cmd.Dir = dir

	return b
}

// Build returns a copy of the command built so far.
func (b *Builder) Build() *Command {
	cmd := b.cmd
	cmd.Args = slices.Clone(b.cmd.Args)
	cmd.Env = slices.Clone(b.cmd.Env)
	cmd.Masked = slices.Clone(b.cmd.Masked)

	return &cmd
}
