package repositories

import (
	"context"
	"os"
	"testing"

	"cgiad/internal/jobs"
	"cgiad/internal/models"
	apperrors "cgiad/internal/pkg/errors"
	"cgiad/internal/pkg/ids"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_TEST_URL")
	if url == "" {
		t.Skip("DATABASE_TEST_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("pgxpool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestJobRepositoryLifecycle(t *testing.T) {
	repo := NewJobRepository(testPool(t))
	ctx := context.Background()
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}

	job := jobs.NewJob(ids.NewToken(), "a.png", "zoom-and-shine", 5)
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, job); !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	if _, err := repo.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if err := repo.UpdateProgress(ctx, job.ID, models.Progress{Step: 3, Total: 10}); err != nil {
		t.Fatalf("progress: %v", err)
	}
	got, err := repo.MarkCompleted(ctx, job.ID, "v1")
	if err != nil {
		t.Fatalf("completed: %v", err)
	}
	if got.Status != models.JobCompleted || got.VideoID != "v1" {
		t.Fatalf("unexpected job %+v", got)
	}

	stored, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != models.JobCompleted || stored.Progress.Step != 10 || stored.FinishedAt == nil {
		t.Fatalf("unexpected stored job %+v", stored)
	}

	if _, err := repo.MarkFailed(ctx, job.ID, "late"); !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if _, err := repo.Get(ctx, "missing"); !apperrors.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestPgErrorHelpers(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("23505 should be a unique violation")
	}
	if !IsUndefinedTable(&pgconn.PgError{Code: "42P01"}) {
		t.Error("42P01 should be an undefined table")
	}
	if IsUniqueViolation(nil) || IsUndefinedTable(context.Canceled) {
		t.Error("non-pg errors must not match")
	}
}
