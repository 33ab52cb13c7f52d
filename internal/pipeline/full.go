package pipeline

import (
	"context"
	"log/slog"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
)

// FullPipelineStage runs extraction, mapping, and analytics in sequence
// within one job. Any stage error propagates to the dispatcher's failure
// handling for the whole job; a retried full-pipeline job restarts from
// extraction rather than resuming mid-sequence.
type FullPipelineStage struct {
	extract   *ExtractSectionsStage
	mapping   *MapActivitiesStage
	analytics *CalculateAnalyticsStage
	logger    *slog.Logger
}

// NewFullPipelineStage creates the combined pipeline stage.
func NewFullPipelineStage(
	extract *ExtractSectionsStage,
	mapping *MapActivitiesStage,
	analytics *CalculateAnalyticsStage,
	logger *slog.Logger,
) *FullPipelineStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FullPipelineStage{
		extract:   extract,
		mapping:   mapping,
		analytics: analytics,
		logger:    logger.With(slog.String("component", "full_pipeline_stage")),
	}
}

// Name implements task.Stage.
func (s *FullPipelineStage) Name() domain.JobType {
	return domain.JobTypeFullPipeline
}

// Run implements task.Stage.
func (s *FullPipelineStage) Run(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.extract.Execute(ctx, job, domain.ProcessingStatusMapping)
	if err != nil {
		return err
	}
	if result.Source == SourceFallback {
		log.Warn("full pipeline running on fallback sections",
			slog.String("document_id", job.DocumentID.String()),
			slog.String("reason", result.Reason))
	}

	if err := s.mapping.Execute(ctx, job); err != nil {
		return err
	}

	// Progress stays at mapping: the document already moved past analyzing
	// and only the dispatcher marks it completed.
	return s.analytics.Execute(ctx, job, domain.ProcessingStatusMapping)
}
