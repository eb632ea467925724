package models

import "time"

type JobStatus string

const (
	JobReceived   JobStatus = "received"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobReceived, JobProcessing, JobCompleted, JobFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanTransition enforces received -> processing -> {completed, failed}.
// A received job may also fail directly (e.g. its asset disappeared).
func CanTransition(from, to JobStatus) bool {
	switch from {
	case JobReceived:
		return to == JobProcessing || to == JobFailed
	case JobProcessing:
		return to == JobCompleted || to == JobFailed
	}
	return false
}

type Progress struct {
	Step  int `json:"step"`
	Total int `json:"total"`
}

// Job is one generation request and its lifecycle.
type Job struct {
	ID              string     `json:"job_id"`
	Filename        string     `json:"filename"`
	Effect          string     `json:"effect"`
	DurationSeconds int        `json:"duration"`
	Status          JobStatus  `json:"status"`
	VideoID         string     `json:"video_id,omitempty"`
	Error           string     `json:"error,omitempty"`
	Progress        Progress   `json:"progress"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}
