package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// MapActivitiesStage advances a document into the mapping phase. The actual
// activity-to-section association happens during analytics aggregation, so
// this stage only records that mapping has been reached.
type MapActivitiesStage struct {
	documents store.DocumentStore
	logger    *slog.Logger
}

// NewMapActivitiesStage creates the activity mapping stage.
func NewMapActivitiesStage(documents store.DocumentStore, logger *slog.Logger) *MapActivitiesStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &MapActivitiesStage{
		documents: documents,
		logger:    logger.With(slog.String("component", "map_activities_stage")),
	}
}

// Name implements task.Stage.
func (s *MapActivitiesStage) Name() domain.JobType {
	return domain.JobTypeMapActivities
}

// Run implements task.Stage.
func (s *MapActivitiesStage) Run(ctx context.Context, job *domain.Job) error {
	return s.Execute(ctx, job)
}

// Execute marks the document as mapping.
func (s *MapActivitiesStage) Execute(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.documents.UpdateProcessing(
		ctx, job.DocumentID, domain.ProcessingStatusMapping, 80, "",
	); err != nil {
		return fmt.Errorf("failed to mark document mapping: %w", err)
	}

	log.Debug("document entered mapping phase",
		slog.String("document_id", job.DocumentID.String()))
	return nil
}
