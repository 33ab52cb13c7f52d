package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/events"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// NotificationService turns job lifecycle events into user-visible
// notifications addressed to the document's owner. It registers as an event
// handler with the dispatcher's emitter.
type NotificationService struct {
	documents     store.DocumentStore
	notifications store.NotificationStore
	logger        *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	documents store.DocumentStore,
	notifications store.NotificationStore,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		documents:     documents,
		notifications: notifications,
		logger:        logger.With(slog.String("component", "notification_service")),
	}
}

// Ensure NotificationService implements events.EventHandler
var _ events.EventHandler = (*NotificationService)(nil)

// HandleEvent implements events.EventHandler. Exactly one notification is
// written per (document, kind): the existence check catches replays cheaply
// and the store's unique constraint settles concurrent races.
func (s *NotificationService) HandleEvent(ctx context.Context, event *events.JobEvent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var kind domain.NotificationKind
	switch event.Type {
	case events.EventJobCompleted:
		kind = domain.NotificationKindProcessingCompleted
	case events.EventJobFailed:
		kind = domain.NotificationKindProcessingFailed
	default:
		return nil
	}

	var payload events.JobLifecyclePayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode lifecycle payload: %w", err)
	}

	// Embedding follow-ups finish independently of the document pipeline
	// and must not announce completion.
	if payload.JobType == string(domain.JobTypeGenerateEmbeddings) {
		return nil
	}

	exists, err := s.notifications.ExistsForCompletion(ctx, payload.DocumentID, kind)
	if err != nil {
		return fmt.Errorf("failed to check for existing notification: %w", err)
	}
	if exists {
		log.Debug("notification already exists, skipping",
			slog.String("document_id", payload.DocumentID.String()),
			slog.String("kind", string(kind)))
		return nil
	}

	doc, err := s.documents.GetByID(ctx, payload.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to load document for notification: %w", err)
	}

	message := fmt.Sprintf("Processing of %q finished. Your document is ready.", doc.Title)
	if kind == domain.NotificationKindProcessingFailed {
		message = fmt.Sprintf("Processing of %q failed: %s", doc.Title, payload.Error)
	}

	notification, err := domain.NewNotification(doc.OwnerID, doc.ID, kind, message)
	if err != nil {
		return err
	}

	if err := s.notifications.Create(ctx, notification); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}

	log.Info("notification created",
		slog.String("document_id", doc.ID.String()),
		slog.String("user_id", doc.OwnerID.String()),
		slog.String("kind", string(kind)))
	return nil
}
