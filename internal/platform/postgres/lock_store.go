package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// PostgresLockStore implements the store.LockStore interface on top of an
// analysis_locks table. A lock row is owned by whichever holder last wrote
// it; a single conditional upsert is the only acquisition path, so two
// processes racing for the same resource can never both succeed.
type PostgresLockStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLockStore creates a new PostgreSQL implementation of the
// LockStore interface. If logger is nil, a default logger will be used.
func NewPostgresLockStore(db store.DBTX, logger *slog.Logger) *PostgresLockStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLockStore{
		db:     db,
		logger: logger.With(slog.String("component", "lock_store")),
	}
}

// Ensure PostgresLockStore implements store.LockStore interface
var _ store.LockStore = (*PostgresLockStore)(nil)

// TryAcquire implements store.LockStore.TryAcquire. The upsert only steals
// an existing row when its lease has expired, so a live lock held by another
// process reports store.ErrLockHeld without blocking.
func (s *PostgresLockStore) TryAcquire(
	ctx context.Context,
	resource, holder string,
	lease time.Duration,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	expires := now.Add(lease)

	query := `
		INSERT INTO analysis_locks (resource_id, holder_id, acquired_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (resource_id) DO UPDATE
		SET holder_id = EXCLUDED.holder_id,
		    acquired_at = EXCLUDED.acquired_at,
		    expires_at = EXCLUDED.expires_at
		WHERE analysis_locks.expires_at < $3
	`
	result, err := s.db.ExecContext(ctx, query, resource, holder, now, expires)
	if err != nil {
		log.Error("failed to acquire lock",
			slog.String("error", err.Error()),
			slog.String("resource", resource))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rows == 0 {
		log.Debug("lock held by another process",
			slog.String("resource", resource),
			slog.String("holder", holder))
		return store.ErrLockHeld
	}

	log.Debug("lock acquired",
		slog.String("resource", resource),
		slog.String("holder", holder),
		slog.Duration("lease", lease))
	return nil
}

// Renew implements store.LockStore.Renew. Only the current holder may
// extend the lease; a renewal against a stolen or expired-and-reclaimed
// row reports store.ErrLockHeld so the caller stops treating the lock
// as owned.
func (s *PostgresLockStore) Renew(
	ctx context.Context,
	resource, holder string,
	lease time.Duration,
) error {
	expires := time.Now().UTC().Add(lease)

	result, err := s.db.ExecContext(ctx, `
		UPDATE analysis_locks
		SET expires_at = $1
		WHERE resource_id = $2 AND holder_id = $3
	`, expires, resource, holder)
	if err != nil {
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rows == 0 {
		return store.ErrLockHeld
	}
	return nil
}

// Release implements store.LockStore.Release. Releasing a lock that is no
// longer held by the given holder is a no-op; the row already belongs to
// someone else or was reaped.
func (s *PostgresLockStore) Release(ctx context.Context, resource, holder string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM analysis_locks
		WHERE resource_id = $1 AND holder_id = $2
	`, resource, holder)
	if err != nil {
		return MapError(err)
	}
	return nil
}
