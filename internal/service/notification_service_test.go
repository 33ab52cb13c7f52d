package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/events"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// docLookupStore serves one known document, for notification addressing.
type docLookupStore struct {
	doc *domain.Document
}

func (s *docLookupStore) Create(_ context.Context, _ *domain.Document) error { return nil }

func (s *docLookupStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	if s.doc != nil && s.doc.ID == id {
		return s.doc, nil
	}
	return nil, store.ErrDocumentNotFound
}

func (s *docLookupStore) SaveRawText(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (s *docLookupStore) ReplaceSections(_ context.Context, _ uuid.UUID, _ []domain.Section) error {
	return nil
}

func (s *docLookupStore) UpdateProcessing(
	_ context.Context, _ uuid.UUID, _ domain.ProcessingStatus, _ int, _ string,
) error {
	return nil
}

func (s *docLookupStore) WithTx(_ *sql.Tx) store.DocumentStore { return s }

type memNotificationStore struct {
	mu        sync.Mutex
	created   []*domain.Notification
	exists    bool
	createErr error
}

func (m *memNotificationStore) Create(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, n)
	return nil
}

func (m *memNotificationStore) ExistsForCompletion(
	_ context.Context, _ uuid.UUID, _ domain.NotificationKind,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exists, nil
}

func (m *memNotificationStore) WithTx(_ *sql.Tx) store.NotificationStore { return m }

func lifecycleEvent(t *testing.T, eventType string, payload events.JobLifecyclePayload) *events.JobEvent {
	t.Helper()
	event, err := events.NewJobEvent(eventType, payload)
	require.NoError(t, err)
	return event
}

func TestNotificationServiceHandleEvent(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	doc := &domain.Document{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Title:   "Linear Algebra Notes",
	}

	newFixture := func() (*NotificationService, *memNotificationStore) {
		notifications := &memNotificationStore{}
		return NewNotificationService(&docLookupStore{doc: doc}, notifications, nil), notifications
	}

	t.Run("completed job notifies the owner", func(t *testing.T) {
		t.Parallel()

		svc, notifications := newFixture()

		err := svc.HandleEvent(context.Background(), lifecycleEvent(t, events.EventJobCompleted,
			events.JobLifecyclePayload{
				JobID:      uuid.New(),
				DocumentID: doc.ID,
				JobType:    string(domain.JobTypeFullPipeline),
			}))
		require.NoError(t, err)

		require.Len(t, notifications.created, 1)
		n := notifications.created[0]
		assert.Equal(t, ownerID, n.UserID)
		assert.Equal(t, doc.ID, n.DocumentID)
		assert.Equal(t, domain.NotificationKindProcessingCompleted, n.Kind)
		assert.Contains(t, n.Message, "Linear Algebra Notes")
		assert.Contains(t, n.Message, "ready")
	})

	t.Run("failed job notification carries the error", func(t *testing.T) {
		t.Parallel()

		svc, notifications := newFixture()

		err := svc.HandleEvent(context.Background(), lifecycleEvent(t, events.EventJobFailed,
			events.JobLifecyclePayload{
				JobID:      uuid.New(),
				DocumentID: doc.ID,
				JobType:    string(domain.JobTypeExtractSections),
				Error:      "extraction service unavailable",
			}))
		require.NoError(t, err)

		require.Len(t, notifications.created, 1)
		n := notifications.created[0]
		assert.Equal(t, domain.NotificationKindProcessingFailed, n.Kind)
		assert.Contains(t, n.Message, "failed")
		assert.Contains(t, n.Message, "extraction service unavailable")
	})

	t.Run("embedding jobs never notify", func(t *testing.T) {
		t.Parallel()

		svc, notifications := newFixture()

		err := svc.HandleEvent(context.Background(), lifecycleEvent(t, events.EventJobCompleted,
			events.JobLifecyclePayload{
				JobID:      uuid.New(),
				DocumentID: doc.ID,
				JobType:    string(domain.JobTypeGenerateEmbeddings),
			}))
		require.NoError(t, err)
		assert.Empty(t, notifications.created)
	})

	t.Run("unrelated event types are ignored", func(t *testing.T) {
		t.Parallel()

		svc, notifications := newFixture()

		err := svc.HandleEvent(context.Background(),
			lifecycleEvent(t, "job_claimed", events.JobLifecyclePayload{DocumentID: doc.ID}))
		require.NoError(t, err)
		assert.Empty(t, notifications.created)
	})

	t.Run("replayed completion is skipped", func(t *testing.T) {
		t.Parallel()

		notifications := &memNotificationStore{exists: true}
		svc := NewNotificationService(&docLookupStore{doc: doc}, notifications, nil)

		err := svc.HandleEvent(context.Background(), lifecycleEvent(t, events.EventJobCompleted,
			events.JobLifecyclePayload{
				DocumentID: doc.ID,
				JobType:    string(domain.JobTypeFullPipeline),
			}))
		require.NoError(t, err)
		assert.Empty(t, notifications.created)
	})

	t.Run("losing the unique-constraint race is not an error", func(t *testing.T) {
		t.Parallel()

		notifications := &memNotificationStore{createErr: store.ErrDuplicate}
		svc := NewNotificationService(&docLookupStore{doc: doc}, notifications, nil)

		err := svc.HandleEvent(context.Background(), lifecycleEvent(t, events.EventJobCompleted,
			events.JobLifecyclePayload{
				DocumentID: doc.ID,
				JobType:    string(domain.JobTypeFullPipeline),
			}))
		assert.NoError(t, err)
	})

	t.Run("missing document is an error", func(t *testing.T) {
		t.Parallel()

		svc, _ := newFixture()

		err := svc.HandleEvent(context.Background(), lifecycleEvent(t, events.EventJobCompleted,
			events.JobLifecyclePayload{
				DocumentID: uuid.New(),
				JobType:    string(domain.JobTypeFullPipeline),
			}))
		assert.ErrorIs(t, err, store.ErrDocumentNotFound)
	})

	t.Run("malformed payload is an error", func(t *testing.T) {
		t.Parallel()

		svc, notifications := newFixture()

		err := svc.HandleEvent(context.Background(), &events.JobEvent{
			ID:      uuid.New(),
			Type:    events.EventJobCompleted,
			Payload: []byte("{not json"),
		})
		require.Error(t, err)
		assert.Empty(t, notifications.created)
	})
}
