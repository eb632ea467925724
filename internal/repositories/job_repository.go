package repositories

import (
	"context"
	"errors"
	"time"

	"cgiad/internal/jobs"
	"cgiad/internal/models"
	apperrors "cgiad/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS generation_jobs (
	id               TEXT PRIMARY KEY,
	filename         TEXT NOT NULL,
	effect           TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL,
	status           TEXT NOT NULL,
	video_id         TEXT,
	error_text       TEXT,
	progress_step    INTEGER NOT NULL DEFAULT 0,
	progress_total   INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at       TIMESTAMPTZ,
	finished_at      TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS generation_jobs_status_idx ON generation_jobs (status);
`

const selectJob = `
	SELECT id, filename, effect, duration_seconds, status, video_id, error_text,
	       progress_step, progress_total, created_at, started_at, finished_at
	FROM generation_jobs
	WHERE id=$1`

// JobRepository implements jobs.Store on PostgreSQL.
type JobRepository struct {
	db *pgxpool.Pool
}

var _ jobs.Store = (*JobRepository)(nil)

func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

// EnsureSchema creates the table and index when missing.
func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

func (r *JobRepository) Create(ctx context.Context, j models.Job) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO generation_jobs (id, filename, effect, duration_seconds, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, j.ID, j.Filename, j.Effect, j.DurationSeconds, string(j.Status), j.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return apperrors.Newf(apperrors.CodeConflict, "job %s already exists", j.ID)
		}
		return wrap("jobs.pg.create", err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (models.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, selectJob, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Job{}, apperrors.NotFound("job", id)
	}
	if err != nil {
		return models.Job{}, wrap("jobs.pg.get", err)
	}
	return j, nil
}

func (r *JobRepository) MarkProcessing(ctx context.Context, id string) (models.Job, error) {
	return r.update(ctx, id, func(j *models.Job) error { return jobs.ToProcessing(j, time.Now().UTC()) })
}

func (r *JobRepository) UpdateProgress(ctx context.Context, id string, p models.Progress) error {
	_, err := r.update(ctx, id, func(j *models.Job) error { return jobs.SetProgress(j, p) })
	return err
}

func (r *JobRepository) MarkCompleted(ctx context.Context, id, videoID string) (models.Job, error) {
	return r.update(ctx, id, func(j *models.Job) error { return jobs.ToCompleted(j, videoID, time.Now().UTC()) })
}

func (r *JobRepository) MarkFailed(ctx context.Context, id, message string) (models.Job, error) {
	return r.update(ctx, id, func(j *models.Job) error { return jobs.ToFailed(j, message, time.Now().UTC()) })
}

// update locks the row, applies fn and writes the mutable columns back.
func (r *JobRepository) update(ctx context.Context, id string, fn func(j *models.Job) error) (models.Job, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.Job{}, wrap("jobs.pg.begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	j, err := scanJob(tx.QueryRow(ctx, selectJob+` FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Job{}, apperrors.NotFound("job", id)
	}
	if err != nil {
		return models.Job{}, wrap("jobs.pg.lock", err)
	}

	if err := fn(&j); err != nil {
		return models.Job{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE generation_jobs
		SET status=$2, video_id=$3, error_text=$4, progress_step=$5, progress_total=$6,
		    started_at=$7, finished_at=$8
		WHERE id=$1
	`, j.ID, string(j.Status), nullIfEmpty(j.VideoID), nullIfEmpty(j.Error),
		j.Progress.Step, j.Progress.Total, j.StartedAt, j.FinishedAt)
	if err != nil {
		return models.Job{}, wrap("jobs.pg.update", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Job{}, wrap("jobs.pg.commit", err)
	}
	return j, nil
}

func scanJob(row pgx.Row) (models.Job, error) {
	var (
		j       models.Job
		status  string
		videoID *string
		errText *string
	)
	err := row.Scan(
		&j.ID,
		&j.Filename,
		&j.Effect,
		&j.DurationSeconds,
		&status,
		&videoID,
		&errText,
		&j.Progress.Step,
		&j.Progress.Total,
		&j.CreatedAt,
		&j.StartedAt,
		&j.FinishedAt,
	)
	if err != nil {
		return models.Job{}, err
	}
	j.Status = models.JobStatus(status)
	if videoID != nil {
		j.VideoID = *videoID
	}
	if errText != nil {
		j.Error = *errText
	}
	return j, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func wrap(op string, err error) error {
	code := apperrors.CodeUnavailable
	if IsUndefinedTable(err) {
		code = apperrors.CodeInternal
	}
	return apperrors.WrapWithCode(err, code, op, "job database error")
}
