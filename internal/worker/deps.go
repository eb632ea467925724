package worker

import (
	"time"

	"cgiad/internal/jobs"
	"cgiad/internal/pkg/logger"
	"cgiad/internal/worker/processor"
)

type Deps struct {
	Queue     jobs.Queue
	Processor *processor.Processor
	Log       *logger.Logger

	// PopTimeout bounds each blocking pop; zero means 30s.
	PopTimeout time.Duration
	// RetryDelay is the pause after a queue error; zero means 1s.
	RetryDelay time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.PopTimeout <= 0 {
		d.PopTimeout = 30 * time.Second
	}
	if d.RetryDelay <= 0 {
		d.RetryDelay = time.Second
	}
	if d.Log == nil {
		d.Log = logger.NewDefault()
	}
	return d
}
