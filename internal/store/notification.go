package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

// NotificationStore defines the interface for persisting user notifications.
type NotificationStore interface {
	// Create saves a new notification to the store.
	Create(ctx context.Context, n *domain.Notification) error

	// ExistsForCompletion reports whether a notification of the given kind
	// has already been written for the document, so a re-dispatched
	// completion never notifies twice.
	ExistsForCompletion(
		ctx context.Context,
		documentID uuid.UUID,
		kind domain.NotificationKind,
	) (bool, error)

	// WithTx returns a new NotificationStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
