// Package events announces job lifecycle changes.
package events

import (
	"context"
	"time"

	"cgiad/internal/models"
	"cgiad/internal/pkg/logger"
)

type Event struct {
	JobID      string           `json:"job_id"`
	Status     models.JobStatus `json:"status"`
	Effect     string           `json:"effect,omitempty"`
	VideoID    string           `json:"video_id,omitempty"`
	Error      string           `json:"error,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// FromJob snapshots j as an event.
func FromJob(j models.Job) Event {
	return Event{
		JobID:      j.ID,
		Status:     j.Status,
		Effect:     j.Effect,
		VideoID:    j.VideoID,
		Error:      j.Error,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events. Callers log and drop publish errors; a job never
// fails because an event could not be sent.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.WithComponent("events")}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.log.Info("job event",
		"job_id", e.JobID,
		"status", string(e.Status),
		"video_id", e.VideoID,
		"error", e.Error,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Emit publishes e and logs a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, log *logger.Logger, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		log.FromContext(ctx).Warn("publish job event failed",
			"job_id", e.JobID,
			"status", string(e.Status),
			"error", err.Error(),
		)
	}
}
