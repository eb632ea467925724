package processor

import (
	"context"

	"cgiad/internal/artifacts"
	"cgiad/internal/pkg/errors"
	"cgiad/internal/transform"
)

// RendererAdapter runs the configured transform engine into a reservation.
type RendererAdapter struct {
	transformer transform.Transformer
}

func NewRendererAdapter(t transform.Transformer) *RendererAdapter {
	return &RendererAdapter{transformer: t}
}

type RenderRequest struct {
	JobID           string
	VideoID         string
	SourcePath      string
	Effect          string
	DurationSeconds int
	Progress        transform.ProgressFunc
}

// Render maps any engine failure onto GENERATION_ERROR.
func (ra *RendererAdapter) Render(ctx context.Context, req RenderRequest, dst *artifacts.Reservation) error {
	err := ra.transformer.Transform(ctx, transform.Request{
		SourcePath:      req.SourcePath,
		Effect:          req.Effect,
		DurationSeconds: req.DurationSeconds,
		JobID:           req.JobID,
		VideoID:         req.VideoID,
		Progress:        req.Progress,
	}, dst)
	if err != nil {
		return errors.Generation("processor.render", err).
			WithField("engine", ra.transformer.Engine()).
			WithField("effect", req.Effect)
	}
	return nil
}
