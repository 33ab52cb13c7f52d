package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// DefaultJobPriority is assigned to jobs created on upload. Lower values
// run sooner.
const DefaultJobPriority = 100

// DocumentService owns document creation and reprocessing triggers. A new
// document and its full-pipeline job commit in one transaction, so there is
// never a document waiting on a job that was lost.
type DocumentService struct {
	db        *sql.DB
	documents store.DocumentStore
	jobs      store.JobStore
	logger    *slog.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(
	db *sql.DB,
	documents store.DocumentStore,
	jobs store.JobStore,
	logger *slog.Logger,
) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		db:        db,
		documents: documents,
		jobs:      jobs,
		logger:    logger.With(slog.String("component", "document_service")),
	}
}

// CreateDocument registers an uploaded document and enqueues its
// full-pipeline job atomically.
func (s *DocumentService) CreateDocument(
	ctx context.Context,
	ownerID uuid.UUID,
	title, filePath, mimeType string,
) (*domain.Document, *domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	doc, err := domain.NewDocument(ownerID, title, filePath, mimeType)
	if err != nil {
		return nil, nil, err
	}

	job, err := domain.NewJob(doc.ID, domain.JobTypeFullPipeline, DefaultJobPriority)
	if err != nil {
		return nil, nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.documents.WithTx(tx).Create(ctx, doc); err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		if err := s.jobs.WithTx(tx).Create(ctx, job); err != nil {
			return fmt.Errorf("failed to enqueue pipeline job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info("document created with pipeline job",
		slog.String("document_id", doc.ID.String()),
		slog.String("job_id", job.ID.String()))
	return doc, job, nil
}

// GetDocument retrieves a document with its sections.
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	return s.documents.GetByID(ctx, id)
}

// EnqueueJob creates a pending job of the given type for an existing
// document, for explicit reprocessing triggers.
func (s *DocumentService) EnqueueJob(
	ctx context.Context,
	documentID uuid.UUID,
	jobType domain.JobType,
) (*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Reject jobs against documents that do not exist, rather than letting
	// the stage fail at claim time.
	if _, err := s.documents.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	job, err := domain.NewJob(documentID, jobType, DefaultJobPriority)
	if err != nil {
		return nil, err
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Info("job enqueued",
		slog.String("document_id", documentID.String()),
		slog.String("job_type", string(jobType)),
		slog.String("job_id", job.ID.String()))
	return job, nil
}
