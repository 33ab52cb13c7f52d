package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// stageDocStore serves one document and records every stage-side mutation.
type stageDocStore struct {
	doc          *domain.Document
	statusWrites []domain.ProcessingStatus
	progress     []int
	sections     []domain.Section
	replaceErr   error
}

func (s *stageDocStore) Create(_ context.Context, _ *domain.Document) error { return nil }

func (s *stageDocStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	if s.doc != nil && s.doc.ID == id {
		return s.doc, nil
	}
	return nil, store.ErrDocumentNotFound
}

func (s *stageDocStore) SaveRawText(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (s *stageDocStore) ReplaceSections(_ context.Context, _ uuid.UUID, sections []domain.Section) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.sections = sections
	return nil
}

func (s *stageDocStore) UpdateProcessing(
	_ context.Context, _ uuid.UUID, status domain.ProcessingStatus, progress int, _ string,
) error {
	s.statusWrites = append(s.statusWrites, status)
	s.progress = append(s.progress, progress)
	return nil
}

func (s *stageDocStore) WithTx(_ *sql.Tx) store.DocumentStore { return s }

// captureTrigger records delivered embedding triggers.
type captureTrigger struct {
	documentID uuid.UUID
	sectionIDs []string
	calls      int
	err        error
}

func (c *captureTrigger) TriggerEmbeddings(
	_ context.Context, documentID uuid.UUID, sectionIDs []string,
) error {
	c.calls++
	c.documentID = documentID
	c.sectionIDs = sectionIDs
	return c.err
}

func embeddingJob(t *testing.T, documentID uuid.UUID) *domain.Job {
	t.Helper()
	job, err := domain.NewJob(documentID, domain.JobTypeGenerateEmbeddings, 0)
	require.NoError(t, err)
	return job
}

func TestGenerateEmbeddingsStage(t *testing.T) {
	t.Parallel()

	docID := uuid.New()
	doc := &domain.Document{
		ID:      docID,
		OwnerID: uuid.New(),
		Title:   "Notes",
		Sections: []domain.Section{
			{ID: "sec-1", DocumentID: docID, Position: 1, Title: "Intro"},
			{ID: "sec-2", DocumentID: docID, Position: 2, Title: "Body"},
		},
	}

	t.Run("delivers the trigger with every section id", func(t *testing.T) {
		t.Parallel()

		trigger := &captureTrigger{}
		stage := NewGenerateEmbeddingsStage(&stageDocStore{doc: doc}, trigger, nil)

		require.Equal(t, domain.JobTypeGenerateEmbeddings, stage.Name())
		require.NoError(t, stage.Run(context.Background(), embeddingJob(t, docID)))

		assert.Equal(t, 1, trigger.calls)
		assert.Equal(t, docID, trigger.documentID)
		assert.Equal(t, []string{"sec-1", "sec-2"}, trigger.sectionIDs)
	})

	t.Run("nil trigger completes without effect", func(t *testing.T) {
		t.Parallel()

		stage := NewGenerateEmbeddingsStage(&stageDocStore{doc: doc}, nil, nil)
		assert.NoError(t, stage.Run(context.Background(), embeddingJob(t, docID)))
	})

	t.Run("document without sections is a no-op", func(t *testing.T) {
		t.Parallel()

		bare := &domain.Document{ID: docID, OwnerID: doc.OwnerID, Title: "Notes"}
		trigger := &captureTrigger{}
		stage := NewGenerateEmbeddingsStage(&stageDocStore{doc: bare}, trigger, nil)

		require.NoError(t, stage.Run(context.Background(), embeddingJob(t, docID)))
		assert.Zero(t, trigger.calls)
	})

	t.Run("delivery failure is a retryable job error", func(t *testing.T) {
		t.Parallel()

		trigger := &captureTrigger{err: errors.New("service unreachable")}
		stage := NewGenerateEmbeddingsStage(&stageDocStore{doc: doc}, trigger, nil)

		err := stage.Run(context.Background(), embeddingJob(t, docID))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to trigger embedding generation")
	})

	t.Run("missing document is an error", func(t *testing.T) {
		t.Parallel()

		stage := NewGenerateEmbeddingsStage(&stageDocStore{}, &captureTrigger{}, nil)

		err := stage.Run(context.Background(), embeddingJob(t, uuid.New()))
		assert.ErrorIs(t, err, store.ErrDocumentNotFound)
	})
}

func TestMapActivitiesStage(t *testing.T) {
	t.Parallel()

	docID := uuid.New()
	docs := &stageDocStore{doc: &domain.Document{ID: docID}}
	stage := NewMapActivitiesStage(docs, nil)

	job, err := domain.NewJob(docID, domain.JobTypeMapActivities, 0)
	require.NoError(t, err)

	require.Equal(t, domain.JobTypeMapActivities, stage.Name())
	require.NoError(t, stage.Run(context.Background(), job))

	require.Len(t, docs.statusWrites, 1)
	assert.Equal(t, domain.ProcessingStatusMapping, docs.statusWrites[0])
	assert.Equal(t, 80, docs.progress[0])
}
