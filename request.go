package submitjcl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ruffel/submitjcl/directory"
)

// MaxConditionCodeLimit is the largest condition code a z/OS job step can return.
const MaxConditionCodeLimit = 4095

// ErrInvalidConfiguration matches every *ConfigurationError.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigurationError lists every problem found in a request.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid submit JCL configuration:\n- " + strings.Join(e.Problems, "\n- ")
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// PayloadKind selects how the JCL reaches the CLI.
type PayloadKind int

const (
	// InlineJCL is JCL text written to a temporary file and passed with -jcl.
	InlineJCL PayloadKind = iota
	// MemberList is a newline separated list of DSN or DSN(MEMBER) passed with -jcldsns.
	MemberList
)

func (k PayloadKind) String() string {
	switch k {
	case InlineJCL:
		return "jcl"
	case MemberList:
		return "members"
	default:
		return "unknown"
	}
}

// Request is one submission. Build it with NewRequest.
type Request struct {
	ConnectionID     string
	CredentialsID    string
	MaxConditionCode string
	Kind             PayloadKind
	Text             string
}

// NewRequest trims every field and validates the result.
func NewRequest(connectionID, credentialsID, maxConditionCode string, kind PayloadKind, text string) (Request, error) {
	r := Request{
		ConnectionID:     strings.TrimSpace(connectionID),
		CredentialsID:    strings.TrimSpace(credentialsID),
		MaxConditionCode: strings.TrimSpace(maxConditionCode),
		Kind:             kind,
		Text:             strings.TrimSpace(text),
	}

	if err := r.Validate(); err != nil {
		return Request{}, err
	}

	return r, nil
}

// Validate returns a *ConfigurationError describing every problem.
func (r Request) Validate() error {
	var problems []string

	if r.ConnectionID == "" {
		problems = append(problems, "connection id is required")
	}

	if r.CredentialsID == "" {
		problems = append(problems, "credentials id is required")
	}

	if r.MaxConditionCode == "" {
		problems = append(problems, "maximum condition code is required")
	} else if cc, err := strconv.Atoi(r.MaxConditionCode); err == nil && (cc < 0 || cc > MaxConditionCodeLimit) {
		problems = append(problems, fmt.Sprintf("maximum condition code %d is outside 0..%d", cc, MaxConditionCodeLimit))
	}

	switch r.Kind {
	case InlineJCL:
		if r.Text == "" {
			problems = append(problems, "JCL text is required")
		}
	case MemberList:
		if len(splitMembers(r.Text)) == 0 {
			problems = append(problems, "at least one JCL member is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown payload kind %d", r.Kind))
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}

	return nil
}

// ValidateCredential rejects login values that cannot reach the CLI as a
// single argument. Values are otherwise passed through untouched.
func ValidateCredential(c directory.Credential) error {
	var problems []string

	if strings.ContainsAny(c.Username, "\r\n") {
		problems = append(problems, fmt.Sprintf("credentials %q: username contains a line break", c.ID))
	}

	if strings.ContainsAny(c.Password, "\r\n") {
		problems = append(problems, fmt.Sprintf("credentials %q: password contains a line break", c.ID))
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}

	return nil
}
