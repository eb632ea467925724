// Package jobs tracks generation jobs and hands them to workers.
package jobs

import (
	"context"
	"time"

	"cgiad/internal/models"
	apperrors "cgiad/internal/pkg/errors"
)

// Store persists jobs. Every Mark* call enforces models.CanTransition and
// returns the job as stored after the change.
type Store interface {
	Create(ctx context.Context, job models.Job) error
	Get(ctx context.Context, id string) (models.Job, error)
	MarkProcessing(ctx context.Context, id string) (models.Job, error)
	UpdateProgress(ctx context.Context, id string, p models.Progress) error
	MarkCompleted(ctx context.Context, id, videoID string) (models.Job, error)
	MarkFailed(ctx context.Context, id, message string) (models.Job, error)
}

const maxErrorLength = 2000

// NewJob returns a received job with a fresh timestamp.
func NewJob(id, filename, effect string, durationSeconds int) models.Job {
	return models.Job{
		ID:              id,
		Filename:        filename,
		Effect:          effect,
		DurationSeconds: durationSeconds,
		Status:          models.JobReceived,
		CreatedAt:       time.Now().UTC(),
	}
}

// transition applies a status change to j in place.
func transition(j *models.Job, to models.JobStatus, now time.Time) error {
	if !models.CanTransition(j.Status, to) {
		return apperrors.Newf(apperrors.CodeConflict, "job %s cannot move from %s to %s", j.ID, j.Status, to).
			WithField("job_id", j.ID)
	}
	j.Status = to
	switch to {
	case models.JobProcessing:
		j.StartedAt = &now
		j.Progress = models.Progress{}
	case models.JobCompleted, models.JobFailed:
		j.FinishedAt = &now
	}
	return nil
}

// ToProcessing, ToCompleted, ToFailed and SetProgress apply a change to a
// loaded job; stores persist the result.
func ToProcessing(j *models.Job, now time.Time) error {
	return transition(j, models.JobProcessing, now)
}

func ToCompleted(j *models.Job, videoID string, now time.Time) error {
	if err := transition(j, models.JobCompleted, now); err != nil {
		return err
	}
	j.VideoID = videoID
	j.Error = ""
	if j.Progress.Total > 0 {
		j.Progress.Step = j.Progress.Total
	}
	return nil
}

func ToFailed(j *models.Job, message string, now time.Time) error {
	if err := transition(j, models.JobFailed, now); err != nil {
		return err
	}
	if len(message) > maxErrorLength {
		message = message[:maxErrorLength]
	}
	j.Error = message
	return nil
}

func SetProgress(j *models.Job, p models.Progress) error {
	if j.Status != models.JobProcessing {
		return apperrors.Newf(apperrors.CodeConflict, "job %s is %s, not processing", j.ID, j.Status).
			WithField("job_id", j.ID)
	}
	j.Progress = p
	return nil
}

func notFound(id string) error { return apperrors.NotFound("job", id) }
