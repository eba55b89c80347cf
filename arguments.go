package submitjcl

import (
	"strings"

	"github.com/ruffel/submitjcl/agent"
	"github.com/ruffel/submitjcl/directory"
	"github.com/ruffel/submitjcl/escape"
)

// SubmitJclCLI flags, in the order the CLI documents them.
const (
	FlagHost     = "-host"
	FlagPort     = "-port"
	FlagUser     = "-id"
	FlagPassword = "-pass"
	FlagCodePage = "-code"
	FlagTimeout  = "-timeout"
	FlagData     = "-data"
	FlagMaxCC    = "-maxcc"
	FlagJCL      = "-jcl"
	FlagJCLDSNs  = "-jcldsns"
)

// Token is one command-line word. Masked tokens never appear in logs.
type Token struct {
	Value  string
	Masked bool

	// raw is the unescaped secret, redacted from output as well.
	raw string
}

// Arguments is the ordered command line, script first.
type Arguments []Token

// Values returns the real tokens.
func (a Arguments) Values() []string {
	values := make([]string, len(a))
	for i, t := range a {
		values[i] = t.Value
	}

	return values
}

// String renders the command line with masked tokens hidden.
func (a Arguments) String() string {
	words := make([]string, len(a))

	for i, t := range a {
		if t.Masked {
			words[i] = agent.Mask
		} else {
			words[i] = t.Value
		}
	}

	return strings.Join(words, " ")
}

// Secrets returns every masked value, escaped and raw, for output redaction.
func (a Arguments) Secrets() []string {
	var secrets []string

	for _, t := range a {
		if !t.Masked {
			continue
		}

		for _, s := range []string{t.Value, t.raw} {
			if strings.TrimSpace(s) != "" && strings.Trim(s, `"`) != "" {
				secrets = append(secrets, s)
			}
		}
	}

	return secrets
}

// Command converts the arguments into an agent command.
func (a Arguments) Command() *agent.Command {
	if len(a) == 0 {
		return &agent.Command{}
	}

	b := agent.Cmd(a[0].Value)

	for _, t := range a[1:] {
		if t.Masked {
			b.Secret(t.Value)
		} else {
			b.Arg(t.Value)
		}
	}

	return b.Build()
}

// Invocation holds the resolved values for one CLI call.
type Invocation struct {
	Script           string
	Connection       directory.HostConnection
	Credential       directory.Credential
	WorkDir          string
	MaxConditionCode string
	Payload          *Payload
}

// Assembler builds the SubmitJclCLI argument vector.
type Assembler struct {
	Escape escape.Func
}

// NewAssembler returns an Assembler using the quoting rules of p.
func NewAssembler(p agent.Platform) Assembler {
	return Assembler{Escape: escape.For(p)}
}

// Assemble returns the arguments in protocol order. Empty values keep their
// slot as an escaped empty string. The code page is passed unescaped.
func (a Assembler) Assemble(inv Invocation) Arguments {
	esc := a.Escape
	if esc == nil {
		esc = escape.Unix
	}

	args := Arguments{
		{Value: inv.Script},
		{Value: FlagHost}, {Value: esc(inv.Connection.Host)},
		{Value: FlagPort}, {Value: esc(inv.Connection.Port)},
		{Value: FlagUser}, {Value: esc(inv.Credential.Username)},
		{Value: FlagPassword}, {Value: esc(inv.Credential.Password), Masked: true, raw: inv.Credential.Password},
		{Value: FlagCodePage}, {Value: inv.Connection.CodePage},
		{Value: FlagTimeout}, {Value: esc(inv.Connection.TimeoutString())},
		{Value: FlagData}, {Value: esc(inv.WorkDir)},
		{Value: FlagMaxCC}, {Value: esc(inv.MaxConditionCode)},
	}

	if inv.Payload == nil {
		return args
	}

	flag := FlagJCL
	if inv.Payload.Kind == MemberList {
		flag = FlagJCLDSNs
	}

	return append(args, Token{Value: flag}, Token{Value: esc(inv.Payload.Token)})
}
