package worker

import (
	"context"
	"time"

	"cgiad/internal/pkg/logger"
)

// Run consumes job ids until ctx is cancelled. A job already being processed
// when ctx is cancelled runs to completion first.
func Run(ctx context.Context, d Deps) error {
	d = d.withDefaults()
	log := d.Log.WithComponent("worker")

	for ctx.Err() == nil {
		jobID, err := d.Queue.Pop(ctx, d.PopTimeout)
		switch {
		case ctx.Err() != nil:
		case err != nil:
			log.Warn("queue pop failed, backing off", "error", err.Error(), "retry_in", d.RetryDelay.String())
			pause(ctx, d.RetryDelay)
		case jobID != "":
			runJob(ctx, d, log, jobID)
		}
	}
	log.Info("worker stopped")
	return ctx.Err()
}

// runJob processes one job on a context that survives worker shutdown.
func runJob(ctx context.Context, d Deps, log *logger.Logger, jobID string) {
	jobCtx := logger.ContextWithJobID(context.WithoutCancel(ctx), jobID)
	jobLog := log.WithJobID(jobID)
	start := time.Now()

	jobLog.Info("job picked up")
	if err := d.Processor.ProcessJob(jobCtx, jobID); err != nil {
		jobLog.Warn("job ended with error", "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
		return
	}
	jobLog.Info("job finished", "duration_ms", time.Since(start).Milliseconds())
}

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
