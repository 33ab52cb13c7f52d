package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

// JobStore defines the interface for persisting pipeline jobs.
type JobStore interface {
	// Create saves a new job to the store.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// GetLatestByDocument retrieves the most recently created job for a
	// document, for the status endpoint. Returns ErrJobNotFound if the
	// document has no jobs.
	GetLatestByDocument(ctx context.Context, documentID uuid.UUID) (*domain.Job, error)

	// CountPending returns the number of jobs currently in pending status.
	CountPending(ctx context.Context) (int, error)

	// ClaimBatch atomically claims up to maxJobs pending jobs, ordered by
	// (priority ascending, created_at ascending). Each claimed job is marked
	// processing with attempts incremented and started_at set. The claim is
	// a single conditional update so two concurrent dispatchers can never
	// claim the same job.
	ClaimBatch(ctx context.Context, maxJobs int) ([]*domain.Job, error)

	// MarkCompleted transitions a processing job to completed.
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// Requeue transitions a processing job back to pending, recording the
	// failure message for visibility. Used when the job has attempts left.
	Requeue(ctx context.Context, id uuid.UUID, errMsg string) error

	// MarkFailed transitions a processing job to failed with the terminal
	// failure message.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// RequeueStuck resets jobs that have been processing for longer than
	// olderThan back to pending, and returns how many were reset. Recovers
	// work orphaned by a crashed worker. Only jobs with claim budget left
	// (attempts <= max_attempts) are reset; exhausted ones are left for
	// FailStuck so a re-claim can never push attempts past the bound.
	RequeueStuck(ctx context.Context, olderThan time.Duration) (int, error)

	// FailStuck terminally fails jobs that have been processing for longer
	// than olderThan and have no claim budget left, returning the failed
	// jobs so the caller can settle their documents.
	FailStuck(ctx context.Context, olderThan time.Duration) ([]*domain.Job, error)

	// WithTx returns a new JobStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) JobStore
}
