// Package cliversion checks that the Topaz CLI installed on a build agent is
// new enough to accept the submit-JCL command line.
package cliversion

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-version"
	"github.com/rs/zerolog"
	"github.com/ruffel/submitjcl/agent"
)

// DefaultMinimum is the oldest CLI release that supports SubmitJclCLI.
const DefaultMinimum = "18.02.01"

// ErrIncompatibleVersion matches every *IncompatibleVersionError.
var ErrIncompatibleVersion = errors.New("incompatible Topaz CLI version")

// IncompatibleVersionError reports a CLI that is too old or whose version
// could not be determined. Installed is empty in the latter case.
type IncompatibleVersionError struct {
	Minimum   string
	Installed string
	Err       error
}

func (e *IncompatibleVersionError) Error() string {
	installed := e.Installed
	if installed == "" {
		installed = "unknown"
	}

	return fmt.Sprintf("The Topaz CLI version must be %s or higher; installed version: %s", e.Minimum, installed)
}

func (e *IncompatibleVersionError) Is(target error) bool {
	return target == ErrIncompatibleVersion
}

func (e *IncompatibleVersionError) Unwrap() error {
	return e.Err
}

// Source reports the version of the CLI installed in cliDir.
type Source interface {
	InstalledVersion(ctx context.Context, l *agent.Launcher, cliDir string) (string, error)
}

// Gate compares the installed CLI version against a minimum.
type Gate struct {
	// Minimum defaults to DefaultMinimum.
	Minimum string
	// Source defaults to ManifestSource.
	Source Source
}

// Check returns the installed version, or an *IncompatibleVersionError if it
// is missing, unparseable or older than the minimum. There is no fallback.
func (g Gate) Check(ctx context.Context, l *agent.Launcher, cliDir string) (string, error) {
	minimum := g.Minimum
	if minimum == "" {
		minimum = DefaultMinimum
	}

	required, err := version.NewVersion(minimum)
	if err != nil {
		return "", fmt.Errorf("invalid minimum CLI version %q: %w", minimum, err)
	}

	var src Source = ManifestSource{}
	if g.Source != nil {
		src = g.Source
	}

	raw, err := src.InstalledVersion(ctx, l, cliDir)
	if err != nil {
		return "", &IncompatibleVersionError{Minimum: minimum, Err: err}
	}

	installed, err := version.NewVersion(raw)
	if err != nil {
		return "", &IncompatibleVersionError{Minimum: minimum, Err: fmt.Errorf("unparseable version %q: %w", raw, err)}
	}

	zerolog.Ctx(ctx).Debug().
		Str("cliDir", cliDir).
		Str("installed", raw).
		Str("minimum", minimum).
		Msg("Checked Topaz CLI version")

	if installed.LessThan(required) {
		return raw, &IncompatibleVersionError{Minimum: minimum, Installed: raw}
	}

	return raw, nil
}
