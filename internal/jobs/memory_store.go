package jobs

import (
	"context"
	"sync"
	"time"

	"cgiad/internal/models"
	apperrors "cgiad/internal/pkg/errors"
)

// MemoryStore keeps jobs for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]models.Job
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]models.Job), now: func() time.Time { return time.Now().UTC() }}
}

func (s *MemoryStore) Create(ctx context.Context, job models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return apperrors.Newf(apperrors.CodeConflict, "job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return models.Job{}, notFound(id)
	}
	return j, nil
}

func (s *MemoryStore) update(id string, fn func(j *models.Job) error) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return models.Job{}, notFound(id)
	}
	if err := fn(&j); err != nil {
		return models.Job{}, err
	}
	s.jobs[id] = j
	return j, nil
}

func (s *MemoryStore) MarkProcessing(ctx context.Context, id string) (models.Job, error) {
	return s.update(id, func(j *models.Job) error { return ToProcessing(j, s.now()) })
}

func (s *MemoryStore) UpdateProgress(ctx context.Context, id string, p models.Progress) error {
	_, err := s.update(id, func(j *models.Job) error { return SetProgress(j, p) })
	return err
}

func (s *MemoryStore) MarkCompleted(ctx context.Context, id, videoID string) (models.Job, error) {
	return s.update(id, func(j *models.Job) error { return ToCompleted(j, videoID, s.now()) })
}

func (s *MemoryStore) MarkFailed(ctx context.Context, id, message string) (models.Job, error) {
	return s.update(id, func(j *models.Job) error { return ToFailed(j, message, s.now()) })
}
