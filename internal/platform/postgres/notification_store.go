package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// PostgresNotificationStore implements the store.NotificationStore
// interface using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of
// the NotificationStore interface. If logger is nil, a default logger will
// be used.
func NewPostgresNotificationStore(
	db store.DBTX,
	logger *slog.Logger,
) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(
	ctx context.Context,
	n *domain.Notification,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO notifications (id, user_id, document_id, kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		n.ID,
		n.UserID,
		n.DocumentID,
		n.Kind,
		n.Message,
		n.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("document_id", n.DocumentID.String()),
			slog.String("kind", string(n.Kind)))
		return MapError(err)
	}

	log.Debug("notification created",
		slog.String("document_id", n.DocumentID.String()),
		slog.String("kind", string(n.Kind)))
	return nil
}

// ExistsForCompletion implements store.NotificationStore.ExistsForCompletion
func (s *PostgresNotificationStore) ExistsForCompletion(
	ctx context.Context,
	documentID uuid.UUID,
	kind domain.NotificationKind,
) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE document_id = $1 AND kind = $2
		)
	`, documentID, kind).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}
