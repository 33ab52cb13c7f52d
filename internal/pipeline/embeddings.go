package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// EmbeddingTrigger notifies the sibling embedding service that a document's
// sections changed. Embedding computation itself is owned elsewhere; this
// core only guarantees the trigger is delivered.
type EmbeddingTrigger interface {
	// TriggerEmbeddings requests embedding generation for the given sections.
	TriggerEmbeddings(ctx context.Context, documentID uuid.UUID, sectionIDs []string) error
}

// GenerateEmbeddingsStage delivers the embedding trigger for a document's
// current sections. It runs as its own durable job, enqueued in the same
// transaction that wrote the sections, so a lost trigger is retried instead
// of silently dropped.
type GenerateEmbeddingsStage struct {
	documents store.DocumentStore
	trigger   EmbeddingTrigger
	logger    *slog.Logger
}

// NewGenerateEmbeddingsStage creates the embedding follow-up stage. A nil
// trigger disables delivery; the stage then completes without effect.
func NewGenerateEmbeddingsStage(
	documents store.DocumentStore,
	trigger EmbeddingTrigger,
	logger *slog.Logger,
) *GenerateEmbeddingsStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateEmbeddingsStage{
		documents: documents,
		trigger:   trigger,
		logger:    logger.With(slog.String("component", "generate_embeddings_stage")),
	}
}

// Name implements task.Stage.
func (s *GenerateEmbeddingsStage) Name() domain.JobType {
	return domain.JobTypeGenerateEmbeddings
}

// Run implements task.Stage.
func (s *GenerateEmbeddingsStage) Run(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.trigger == nil {
		log.Debug("embedding trigger disabled, skipping",
			slog.String("document_id", job.DocumentID.String()))
		return nil
	}

	doc, err := s.documents.GetByID(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	if len(doc.Sections) == 0 {
		log.Debug("document has no sections, nothing to embed",
			slog.String("document_id", doc.ID.String()))
		return nil
	}

	sectionIDs := make([]string, len(doc.Sections))
	for i, section := range doc.Sections {
		sectionIDs[i] = section.ID
	}

	if err := s.trigger.TriggerEmbeddings(ctx, doc.ID, sectionIDs); err != nil {
		return fmt.Errorf("failed to trigger embedding generation: %w", err)
	}

	log.Info("embedding generation triggered",
		slog.String("document_id", doc.ID.String()),
		slog.Int("section_count", len(sectionIDs)))
	return nil
}
