package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cgiad/internal/models"
	apperrors "cgiad/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultJobTTL = 7 * 24 * time.Hour

	maxTxRetries = 5
)

// RedisStore keeps each job as JSON under "<prefix>:job:<id>". Updates use
// WATCH/MULTI so concurrent workers cannot interleave transitions.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "cgiad"
	}
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string { return s.prefix + ":job:" + id }

func (s *RedisStore) Create(ctx context.Context, job models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, s.key(job.ID), data, s.ttl).Result()
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.CodeUnavailable, "jobs.redis.create", "redis write failed")
	}
	if !ok {
		return apperrors.Newf(apperrors.CodeConflict, "job %s already exists", job.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (models.Job, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Job{}, notFound(id)
	}
	if err != nil {
		return models.Job{}, apperrors.WrapWithCode(err, apperrors.CodeUnavailable, "jobs.redis.get", "redis read failed")
	}
	return decodeJob(data)
}

func (s *RedisStore) update(ctx context.Context, id string, fn func(j *models.Job) error) (models.Job, error) {
	key := s.key(id)
	var out models.Job

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return notFound(id)
		}
		if err != nil {
			return err
		}
		j, err := decodeJob(data)
		if err != nil {
			return err
		}
		if err := fn(&j); err != nil {
			return err
		}
		updated, err := json.Marshal(j)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.ttl)
			return nil
		})
		if err == nil {
			out = j
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		var appErr *apperrors.Error
		if err != nil && !errors.As(err, &appErr) {
			return models.Job{}, apperrors.WrapWithCode(err, apperrors.CodeUnavailable, "jobs.redis.update", "redis update failed")
		}
		return out, err
	}
	return models.Job{}, apperrors.Newf(apperrors.CodeConflict, "job %s: too many concurrent updates", id)
}

func (s *RedisStore) MarkProcessing(ctx context.Context, id string) (models.Job, error) {
	return s.update(ctx, id, func(j *models.Job) error { return ToProcessing(j, time.Now().UTC()) })
}

func (s *RedisStore) UpdateProgress(ctx context.Context, id string, p models.Progress) error {
	_, err := s.update(ctx, id, func(j *models.Job) error { return SetProgress(j, p) })
	return err
}

func (s *RedisStore) MarkCompleted(ctx context.Context, id, videoID string) (models.Job, error) {
	return s.update(ctx, id, func(j *models.Job) error { return ToCompleted(j, videoID, time.Now().UTC()) })
}

func (s *RedisStore) MarkFailed(ctx context.Context, id, message string) (models.Job, error) {
	return s.update(ctx, id, func(j *models.Job) error { return ToFailed(j, message, time.Now().UTC()) })
}

func decodeJob(data []byte) (models.Job, error) {
	var j models.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return models.Job{}, fmt.Errorf("decode job: %w", err)
	}
	return j, nil
}
