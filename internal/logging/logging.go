// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	globallog "github.com/rs/zerolog/log"
)

// ConfigureGlobalLogger sets up the zerolog global logger.
// With an empty logFilePath it writes human-readable lines to stderr at info
// level (debug when verbose). Otherwise it appends JSON at debug level to the file.
func ConfigureGlobalLogger(verbose bool, logFilePath string) (io.Closer, error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	var closer io.Closer = nopCloser{}

	if logFilePath != "" {
		dir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %q: %w", dir, err)
		}

		f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %q: %w", logFilePath, err)
		}

		globallog.Logger = zerolog.New(f).With().Timestamp().Logger()
		level = zerolog.DebugLevel
		closer = f
	} else {
		globallog.Logger = zerolog.New(ConsoleWriter(os.Stderr)).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	globallog.Debug().Msgf("Log level set to: %s", level)

	return closer, nil
}

// ConsoleWriter renders events as "<time> [LEVEL] message key=value".
func ConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i any) string {
			if level, ok := i.(string); ok {
				return strings.ToUpper("[" + level + "]")
			}

			return fmt.Sprintf("[%v]", i)
		},
		FormatMessage: func(i any) string {
			if msg, ok := i.(string); ok {
				return msg
			}

			return fmt.Sprintf("%v", i)
		},
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
