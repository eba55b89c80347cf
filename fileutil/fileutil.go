// Package fileutil holds file-transfer helpers shared by the agent providers.
package fileutil

import (
	"context"
	"io"

	"github.com/ruffel/submitjcl/agent"
)

// ProgressReader reports the bytes read so far through an agent.ProgressFunc.
// Total is the expected size, or 0 if unknown.
type ProgressReader struct {
	io.Reader
	Total   int64
	Current int64
	Fn      agent.ProgressFunc
}

// Read reads from the underlying reader and reports progress.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.Current += int64(n)
		if pr.Fn != nil {
			pr.Fn(pr.Current, pr.Total)
		}
	}

	return n, err
}

// ContextReader stops an io.Copy once its context is cancelled.
type ContextReader struct {
	Ctx    context.Context //nolint:containedctx
	Reader io.Reader
}

// Read checks for context cancellation before delegating to the underlying reader.
func (cr *ContextReader) Read(p []byte) (int, error) {
	if err := cr.Ctx.Err(); err != nil {
		return 0, err
	}

	return cr.Reader.Read(p)
}

// Wrap decorates r with cancellation and, when cfg has a progress callback, progress reporting.
func Wrap(ctx context.Context, r io.Reader, total int64, cfg agent.FileConfig) io.Reader {
	r = &ContextReader{Ctx: ctx, Reader: r}

	if cfg.Progress != nil {
		r = &ProgressReader{Reader: r, Total: total, Fn: cfg.Progress}
	}

	return r
}
