package cliversion

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ruffel/submitjcl/agent"
)

// ManifestFile is the version manifest shipped in every CLI installation.
const ManifestFile = "versions.xml"

// CLIPlaceholder in a CommandSource is replaced by the CLI directory.
const CLIPlaceholder = "{cli}"

var versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)

// ManifestSource reads the version attribute of versions.xml.
type ManifestSource struct{}

func (ManifestSource) InstalledVersion(ctx context.Context, l *agent.Launcher, cliDir string) (string, error) {
	manifest := l.Platform().Join(cliDir, ManifestFile)

	data, err := l.ReadFile(ctx, manifest)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", manifest, err)
	}

	v, err := parseManifest(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", manifest, err)
	}

	return v, nil
}

// parseManifest returns the first non-empty version attribute in document order.
func parseManifest(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", errors.New("no version attribute found")
		}

		if err != nil {
			return "", fmt.Errorf("malformed manifest: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		for _, attr := range start.Attr {
			if attr.Name.Local == "version" && strings.TrimSpace(attr.Value) != "" {
				return strings.TrimSpace(attr.Value), nil
			}
		}
	}
}

// CommandSource runs a version query on the agent and takes the first
// dotted number printed to stdout.
type CommandSource struct {
	Command string
}

func (s CommandSource) InstalledVersion(ctx context.Context, l *agent.Launcher, cliDir string) (string, error) {
	cmd, err := agent.ParseCommand(s.Command)
	if err != nil {
		return "", fmt.Errorf("invalid version command: %w", err)
	}

	cmd.Cmd = strings.ReplaceAll(cmd.Cmd, CLIPlaceholder, cliDir)
	for i, arg := range cmd.Args {
		cmd.Args[i] = strings.ReplaceAll(arg, CLIPlaceholder, cliDir)
	}

	res, err := l.RunBuffered(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("version command failed: %w", err)
	}

	v := versionPattern.Find(res.Stdout)
	if v == nil {
		return "", fmt.Errorf("no version in output %q", strings.TrimSpace(string(res.Stdout)))
	}

	return string(v), nil
}
