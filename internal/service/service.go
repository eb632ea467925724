// Package service orchestrates uploads, generations and artifact retrieval on
// top of the asset store, the artifact store and the processor.
package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"cgiad/internal/artifacts"
	"cgiad/internal/assets"
	"cgiad/internal/jobs"
	"cgiad/internal/models"
	"cgiad/internal/pkg/errors"
	"cgiad/internal/pkg/ids"
	"cgiad/internal/pkg/logger"
	"cgiad/internal/transform"
	"cgiad/internal/worker/processor"
)

const (
	DefaultDurationSeconds = 5

	uploadMessage   = "File uploaded successfully"
	generateMessage = "Video generated successfully"
)

type Deps struct {
	Assets    *assets.Store
	Artifacts *artifacts.Store
	Processor *processor.Processor
	// Jobs and Queue back Submit; both may be nil when async jobs are disabled.
	Jobs  jobs.Store
	Queue jobs.Queue
	Log   *logger.Logger
	// DefaultDurationSeconds applies when a request omits the duration.
	DefaultDurationSeconds int
}

type Service struct {
	assets    *assets.Store
	artifacts *artifacts.Store
	processor *processor.Processor
	jobs      jobs.Store
	queue     jobs.Queue
	log       *logger.Logger

	defaultDuration int
}

func New(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	dur := d.DefaultDurationSeconds
	if dur <= 0 {
		dur = DefaultDurationSeconds
	}
	return &Service{
		assets:          d.Assets,
		artifacts:       d.Artifacts,
		processor:       d.Processor,
		jobs:            d.Jobs,
		queue:           d.Queue,
		log:             log.WithComponent("service"),
		defaultDuration: dur,
	}
}

type UploadResult struct {
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
	Message  string `json:"message"`
}

// Upload stores r as a new asset. Only the extension of originalFilename is
// kept; the stored name is always a fresh identifier.
func (s *Service) Upload(ctx context.Context, r io.Reader, originalFilename string) (UploadResult, error) {
	asset, err := s.assets.Store(ctx, r, filepath.Ext(originalFilename))
	if err != nil {
		s.log.LogError(ctx, "upload failed", err)
		return UploadResult{}, err
	}
	s.log.FromContext(ctx).Info("asset stored", "filename", asset.Filename, "size", asset.Size)
	return UploadResult{
		Filename: asset.Filename,
		FilePath: s.assets.Path(asset),
		Message:  uploadMessage,
	}, nil
}

type GenerateRequest struct {
	Filename string
	Effect   string
	// DurationSeconds is nil when the client did not send one.
	DurationSeconds *int
}

type GenerateResult struct {
	VideoID     string `json:"video_id"`
	OutputPath  string `json:"output_path"`
	DownloadURL string `json:"download_url"`
	Message     string `json:"message"`
}

func (s *Service) validate(req GenerateRequest) (int, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return 0, errors.ValidationField("filename", "filename is required")
	}
	if strings.TrimSpace(req.Effect) == "" {
		return 0, errors.ValidationField("effect", "effect is required")
	}
	if req.DurationSeconds == nil {
		return s.defaultDuration, nil
	}
	if *req.DurationSeconds <= 0 {
		return 0, errors.ValidationField("duration", "duration must be a positive integer")
	}
	return *req.DurationSeconds, nil
}

// Generate runs one generation and blocks until the artifact is committed.
// The work is detached from ctx cancellation so a client that goes away does
// not abort it.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	duration, err := s.validate(req)
	if err != nil {
		return GenerateResult{}, err
	}
	log := s.log.FromContext(ctx)

	asset, err := s.assets.Resolve(ctx, req.Filename)
	if err != nil {
		if errors.IsNotFound(err) {
			log.Warn("generate rejected", "filename", req.Filename, "reason", "asset not found")
			return GenerateResult{}, err
		}
		log.Error("generate failed", "filename", req.Filename, "error", err.Error())
		return GenerateResult{}, err
	}

	artifact, err := s.processor.Execute(context.WithoutCancel(ctx), processor.Input{
		Asset:           asset,
		Effect:          req.Effect,
		DurationSeconds: duration,
	})
	if err != nil {
		log.Error("generate failed",
			"filename", req.Filename,
			"effect", req.Effect,
			"code", string(errors.GetCode(err)),
			"cause", errors.Cause(err),
		)
		return GenerateResult{}, errors.Wrap(err, "service.generate", processor.FailureMessage(err))
	}

	log.Info("video generated", "video_id", artifact.ID, "effect", req.Effect, "duration", duration)
	return GenerateResult{
		VideoID:     artifact.ID,
		OutputPath:  s.artifacts.Path(artifact.ID),
		DownloadURL: s.artifacts.PublicURL(artifact.ID),
		Message:     generateMessage,
	}, nil
}

// FetchResult is an open artifact stream. The caller closes Body.
type FetchResult struct {
	Body         io.ReadCloser
	Size         int64
	MediaType    string
	DownloadName string
}

// Fetch opens the artifact named by videoID.
func (s *Service) Fetch(ctx context.Context, videoID string) (FetchResult, error) {
	rc, a, err := s.artifacts.Open(ctx, videoID)
	if err != nil {
		return FetchResult{}, err
	}
	return FetchResult{
		Body:         rc,
		Size:         a.Size,
		MediaType:    artifacts.MediaType,
		DownloadName: artifacts.DownloadName(a.ID),
	}, nil
}

// FetchFile opens an artifact by its "<id>.mp4" file name.
func (s *Service) FetchFile(ctx context.Context, filename string) (FetchResult, error) {
	a, err := s.artifacts.ResolveFile(ctx, filename)
	if err != nil {
		return FetchResult{}, err
	}
	return s.Fetch(ctx, a.ID)
}

// Submit queues a generation and returns the job in the received state.
func (s *Service) Submit(ctx context.Context, req GenerateRequest) (models.Job, error) {
	if s.jobs == nil || s.queue == nil {
		return models.Job{}, errors.New(errors.CodeUnavailable, "async jobs are not enabled")
	}
	duration, err := s.validate(req)
	if err != nil {
		return models.Job{}, err
	}
	if _, err := s.assets.Resolve(ctx, req.Filename); err != nil {
		return models.Job{}, err
	}

	job := jobs.NewJob(ids.NewToken(), req.Filename, req.Effect, duration)
	if err := s.jobs.Create(ctx, job); err != nil {
		return models.Job{}, errors.Wrap(err, "service.submit", "failed to create job")
	}
	if err := s.queue.Push(ctx, job.ID); err != nil {
		if _, ferr := s.jobs.MarkFailed(context.WithoutCancel(ctx), job.ID, "failed to queue job"); ferr != nil {
			s.log.FromContext(ctx).Warn("could not record queue failure", "job_id", job.ID, "error", ferr.Error())
		}
		s.log.LogError(logger.ContextWithJobID(ctx, job.ID), "queue push failed", err)
		return models.Job{}, errors.WrapWithCode(err, errors.CodeUnavailable, "service.submit", "failed to queue job")
	}

	s.log.FromContext(logger.ContextWithJobID(ctx, job.ID)).Info("job submitted",
		"filename", job.Filename,
		"effect", job.Effect,
		"duration", job.DurationSeconds,
	)
	return job, nil
}

// JobView is a job as reported to clients, with the artifact URL once completed.
type JobView struct {
	models.Job
	DownloadURL string `json:"download_url,omitempty"`
}

func (s *Service) Job(ctx context.Context, id string) (JobView, error) {
	if s.jobs == nil || !ids.IsToken(id) {
		return JobView{}, errors.NotFound("job", id)
	}
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return JobView{}, err
	}
	view := JobView{Job: job}
	if job.Status == models.JobCompleted && job.VideoID != "" {
		view.DownloadURL = s.artifacts.PublicURL(job.VideoID)
	}
	return view, nil
}

// Effects lists the known effect catalog. Generate accepts any tag.
func (s *Service) Effects() []transform.Effect {
	return transform.Effects()
}

// Providers reports the storage provider backing each store.
func (s *Service) Providers() map[string]string {
	return map[string]string{
		"uploads": s.assets.Provider(),
		"outputs": s.artifacts.Provider(),
	}
}
