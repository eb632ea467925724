package processor

import (
	"context"
	"time"

	"cgiad/internal/artifacts"
	"cgiad/internal/assets"
	"cgiad/internal/events"
	"cgiad/internal/jobs"
	"cgiad/internal/models"
	"cgiad/internal/pkg/errors"
	"cgiad/internal/pkg/ids"
	"cgiad/internal/pkg/logger"
	"cgiad/internal/transform"
)

type Deps struct {
	Assets      *assets.Store
	Artifacts   *artifacts.Store
	Transformer transform.Transformer
	Jobs        jobs.Store
	Events      events.Publisher
	// WorkDir holds per-run scratch space (materialized inputs).
	WorkDir string
	Log     *logger.Logger
}

type Processor struct {
	assets    *assets.Store
	artifacts *artifacts.Store
	jobs      jobs.Store
	events    events.Publisher
	log       *logger.Logger

	inputHandler    *InputHandler
	rendererAdapter *RendererAdapter
	outputHandler   *OutputHandler
	cleanup         *Cleanup
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("processor")

	p := &Processor{
		assets:    d.Assets,
		artifacts: d.Artifacts,
		jobs:      d.Jobs,
		events:    d.Events,
		log:       log,
	}

	p.inputHandler = NewInputHandler(d.Assets, d.WorkDir)
	p.rendererAdapter = NewRendererAdapter(d.Transformer)
	p.outputHandler = NewOutputHandler(log)
	p.cleanup = NewCleanup(d.WorkDir, log)

	return p
}

// Input describes one generation run.
type Input struct {
	Asset           models.Asset
	Effect          string
	DurationSeconds int
	// JobID is empty for synchronous requests.
	JobID    string
	Progress transform.ProgressFunc
}

// Execute materializes the asset, transforms it into a fresh reservation and
// commits the artifact. It logs progress but never at error level; callers
// own the failure report.
func (p *Processor) Execute(ctx context.Context, in Input) (models.Artifact, error) {
	runID := in.JobID
	if runID == "" {
		runID = ids.NewToken()
	}
	log := p.log.FromContext(ctx)
	defer p.cleanup.CleanupRun(runID)

	// 1. Local copy of the source image
	sourcePath, err := p.inputHandler.Materialize(ctx, runID, in.Asset)
	if err != nil {
		return models.Artifact{}, err
	}
	log.Debug("input materialized", "path", sourcePath)

	// 2. Claim the artifact id
	res, err := p.artifacts.Reserve(ctx)
	if err != nil {
		return models.Artifact{}, err
	}
	ctx = logger.ContextWithVideoID(ctx, res.ID)

	// 3. Render into the reservation
	start := time.Now()
	err = p.rendererAdapter.Render(ctx, RenderRequest{
		JobID:           in.JobID,
		VideoID:         res.ID,
		SourcePath:      sourcePath,
		Effect:          in.Effect,
		DurationSeconds: in.DurationSeconds,
		Progress:        in.Progress,
	}, res)
	if err != nil {
		res.Abort()
		return models.Artifact{}, err
	}

	// 4. Publish
	artifact, err := p.outputHandler.Commit(ctx, res)
	if err != nil {
		return models.Artifact{}, err
	}
	p.log.FromContext(ctx).Info("artifact committed",
		"size", artifact.Size,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return artifact, nil
}

// ProcessJob runs a queued job end to end and records its outcome. A job
// that is not in the received state is skipped.
func (p *Processor) ProcessJob(ctx context.Context, jobID string) error {
	ctx = logger.ContextWithJobID(ctx, jobID)
	log := p.log.FromContext(ctx)

	// 1. Claim the job
	job, err := p.jobs.MarkProcessing(ctx, jobID)
	if err != nil {
		if errors.IsCode(err, errors.CodeConflict) {
			log.Warn("job not claimable, skipping", "error", err.Error())
			return nil
		}
		return errors.Wrap(err, "processor.claim", "failed to mark job as processing")
	}
	events.Emit(ctx, p.events, p.log, events.FromJob(job))

	// 2. Source asset must still exist
	asset, err := p.assets.Resolve(ctx, job.Filename)
	if err != nil {
		return p.failJob(ctx, job, err)
	}

	// 3. Generate, persisting progress as it goes
	artifact, err := p.Execute(ctx, Input{
		Asset:           asset,
		Effect:          job.Effect,
		DurationSeconds: job.DurationSeconds,
		JobID:           job.ID,
		Progress: func(step, total int) {
			if err := p.jobs.UpdateProgress(ctx, job.ID, models.Progress{Step: step, Total: total}); err != nil {
				log.Warn("progress update failed", "step", step, "error", err.Error())
			}
		},
	})
	if err != nil {
		return p.failJob(ctx, job, err)
	}

	// 4. Done
	job, err = p.jobs.MarkCompleted(context.WithoutCancel(ctx), job.ID, artifact.ID)
	if err != nil {
		return errors.Wrap(err, "processor.complete", "failed to mark job as completed")
	}
	events.Emit(ctx, p.events, p.log, events.FromJob(job))
	return nil
}

func (p *Processor) failJob(ctx context.Context, job models.Job, cause error) error {
	log := p.log.FromContext(ctx)

	var appErr *errors.Error
	if errors.As(cause, &appErr) {
		log.Error("job failed",
			"code", string(appErr.Code),
			"op", appErr.Op,
			"message", appErr.Message,
			"cause", errors.Cause(cause),
		)
	} else {
		log.Error("job failed", "error", cause.Error())
	}

	failed, err := p.jobs.MarkFailed(context.WithoutCancel(ctx), job.ID, FailureMessage(cause))
	if err != nil {
		log.Warn("could not record job failure", "error", err.Error())
		return cause
	}
	events.Emit(ctx, p.events, p.log, events.FromJob(failed))
	return cause
}

// FailureMessage is the client-facing text for a failed generation.
func FailureMessage(err error) string {
	if errors.IsNotFound(err) {
		var e *errors.Error
		if errors.As(err, &e) {
			return e.Message
		}
	}
	return "Error generating video: " + errors.Cause(err)
}
