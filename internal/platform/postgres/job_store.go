package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// PostgresJobStore implements the store.JobStore interface
// using a PostgreSQL database as the storage backend.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the JobStore
// interface. It accepts a database connection or transaction that should be
// initialized and managed by the caller. If logger is nil, a default logger
// will be used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements store.JobStore interface
var _ store.JobStore = (*PostgresJobStore)(nil)

// WithTx implements store.JobStore.WithTx
func (s *PostgresJobStore) WithTx(tx *sql.Tx) store.JobStore {
	return &PostgresJobStore{
		db:     tx,
		logger: s.logger,
	}
}

const jobColumns = `id, document_id, job_type, status, priority, attempts,
	max_attempts, error_message, created_at, started_at, completed_at`

// Create implements store.JobStore.Create
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return err
	}

	query := `
		INSERT INTO jobs (id, document_id, job_type, status, priority, attempts,
			max_attempts, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.DocumentID,
		job.Type,
		job.Status,
		job.Priority,
		job.Attempts,
		job.MaxAttempts,
		job.ErrorMessage,
		job.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()),
			slog.String("document_id", job.DocumentID.String()))
		return MapError(err)
	}

	log.Info("job created",
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", string(job.Type)),
		slog.String("document_id", job.DocumentID.String()))
	return nil
}

// GetByID implements store.JobStore.GetByID
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1`, jobColumns)

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrJobNotFound
		}
		return nil, MapError(err)
	}

	return job, nil
}

// GetLatestByDocument implements store.JobStore.GetLatestByDocument
func (s *PostgresJobStore) GetLatestByDocument(
	ctx context.Context,
	documentID uuid.UUID,
) (*domain.Job, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM jobs
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, jobColumns)

	job, err := scanJob(s.db.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrJobNotFound
		}
		return nil, MapError(err)
	}

	return job, nil
}

// CountPending implements store.JobStore.CountPending
func (s *PostgresJobStore) CountPending(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM jobs WHERE status = $1`,
		domain.JobStatusPending,
	).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// ClaimBatch implements store.JobStore.ClaimBatch.
//
// The claim is a single conditional UPDATE over a SKIP LOCKED subselect, so
// two dispatchers running concurrently partition the pending set instead of
// double-claiming. attempts is incremented as part of the claim, which keeps
// the attempts <= max_attempts+1 bound intact even under crash-and-requeue.
func (s *PostgresJobStore) ClaimBatch(ctx context.Context, maxJobs int) ([]*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if maxJobs <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		UPDATE jobs
		SET status = $1, attempts = attempts + 1, started_at = $2
		WHERE id IN (
			SELECT id FROM jobs
			WHERE status = $3
			ORDER BY priority ASC, created_at ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s
	`, jobColumns)

	rows, err := s.db.QueryContext(
		ctx,
		query,
		domain.JobStatusProcessing,
		time.Now().UTC(),
		domain.JobStatusPending,
		maxJobs,
	)
	if err != nil {
		log.Error("failed to claim job batch", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, MapError(err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("claimed job batch",
		slog.Int("requested", maxJobs),
		slog.Int("claimed", len(jobs)))
	return jobs, nil
}

// MarkCompleted implements store.JobStore.MarkCompleted
func (s *PostgresJobStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, error_message = '', completed_at = $2
		WHERE id = $3 AND status = $4
	`, domain.JobStatusCompleted, time.Now().UTC(), id, domain.JobStatusProcessing)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "processing job")
}

// Requeue implements store.JobStore.Requeue
func (s *PostgresJobStore) Requeue(ctx context.Context, id uuid.UUID, errMsg string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, error_message = $2, started_at = NULL
		WHERE id = $3 AND status = $4
	`, domain.JobStatusPending, errMsg, id, domain.JobStatusProcessing)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "processing job")
}

// MarkFailed implements store.JobStore.MarkFailed
func (s *PostgresJobStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, error_message = $2, completed_at = $3
		WHERE id = $4 AND status = $5
	`, domain.JobStatusFailed, errMsg, time.Now().UTC(), id, domain.JobStatusProcessing)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "processing job")
}

// RequeueStuck implements store.JobStore.RequeueStuck. The attempts filter
// keeps a requeued job claimable within the attempts <= max_attempts+1
// bound; exhausted stuck jobs belong to FailStuck.
func (s *PostgresJobStore) RequeueStuck(
	ctx context.Context,
	olderThan time.Duration,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, error_message = $2, started_at = NULL
		WHERE status = $3 AND started_at < $4 AND attempts <= max_attempts
	`,
		domain.JobStatusPending,
		"reset after being stuck in processing state",
		domain.JobStatusProcessing,
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return 0, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected > 0 {
		log.Info("requeued stuck jobs", slog.Int64("count", affected))
	}
	return int(affected), nil
}

// FailStuck implements store.JobStore.FailStuck
func (s *PostgresJobStore) FailStuck(
	ctx context.Context,
	olderThan time.Duration,
) ([]*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		UPDATE jobs
		SET status = $1, error_message = $2, completed_at = $3
		WHERE status = $4 AND started_at < $5 AND attempts > max_attempts
		RETURNING %s
	`, jobColumns)

	rows, err := s.db.QueryContext(
		ctx,
		query,
		domain.JobStatusFailed,
		"stuck in processing with no attempts remaining",
		time.Now().UTC(),
		domain.JobStatusProcessing,
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		log.Error("failed to fail stuck jobs", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, MapError(err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	if len(jobs) > 0 {
		log.Warn("failed exhausted stuck jobs", slog.Int("count", len(jobs)))
	}
	return jobs, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var errorMessage sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.DocumentID,
		&job.Type,
		&job.Status,
		&job.Priority,
		&job.Attempts,
		&job.MaxAttempts,
		&errorMessage,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}
