// Package transform turns a source image into artifact bytes.
package transform

import (
	"context"
	"io"
)

// ProgressFunc is called after each completed step.
type ProgressFunc func(step, total int)

type Request struct {
	// SourcePath is a local file path to the source image.
	SourcePath      string
	Effect          string
	DurationSeconds int
	// JobID and VideoID only enrich logs and renderer requests.
	JobID    string
	VideoID  string
	Progress ProgressFunc
}

func (r Request) report(step, total int) {
	if r.Progress != nil {
		r.Progress(step, total)
	}
}

// Transformer writes the artifact for req into dst. On error dst may hold a
// partial payload and must be discarded by the caller.
type Transformer interface {
	Transform(ctx context.Context, req Request, dst io.Writer) error
	Engine() string
}
