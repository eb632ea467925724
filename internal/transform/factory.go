package transform

import (
	"fmt"

	"cgiad/internal/config"
	"cgiad/internal/pkg/logger"
)

// New builds the engine selected by cfg.TransformEngine.
func New(cfg *config.Config, log *logger.Logger) (Transformer, error) {
	switch cfg.TransformEngine {
	case "", "simulated":
		return NewSimulator(log, cfg.TransformSteps, cfg.TransformStepDelay), nil
	case "ffmpeg":
		return NewFFmpegEncoder(log, cfg.FFmpegBin), nil
	case "http":
		return NewHTTPRenderer(log, cfg.RendererBaseURL, nil), nil
	default:
		return nil, fmt.Errorf("unknown transform engine: %s", cfg.TransformEngine)
	}
}
