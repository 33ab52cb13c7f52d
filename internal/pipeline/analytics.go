package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/generation"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

const misconceptionPrompt = `You are reviewing student responses for one section of a course.

Section: %s
Concepts covered: %s

Student responses:
%s

Identify up to 5 common misconceptions these responses reveal. Return a JSON
array where each element has "concept", "description", "evidence",
"severity" (one of "low", "medium", "high"), and "correction".
Return only the JSON array.`

// CalculateAnalyticsStage recomputes the per-section analytics aggregates
// for a document: attempt and completion counts, score and time averages,
// best-effort AI misconception insights, and naive concept mastery derived
// from substring matches against student responses. Records are upserted
// wholesale by (document, section).
type CalculateAnalyticsStage struct {
	documents store.DocumentStore
	analytics store.AnalyticsStore
	progress  store.ProgressStore
	generator generation.Generator
	logger    *slog.Logger
}

// NewCalculateAnalyticsStage creates the analytics aggregation stage.
func NewCalculateAnalyticsStage(
	documents store.DocumentStore,
	analytics store.AnalyticsStore,
	progress store.ProgressStore,
	generator generation.Generator,
	logger *slog.Logger,
) *CalculateAnalyticsStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalculateAnalyticsStage{
		documents: documents,
		analytics: analytics,
		progress:  progress,
		generator: generator,
		logger:    logger.With(slog.String("component", "calculate_analytics_stage")),
	}
}

// Name implements task.Stage.
func (s *CalculateAnalyticsStage) Name() domain.JobType {
	return domain.JobTypeCalculateAnalytics
}

// Run implements task.Stage.
func (s *CalculateAnalyticsStage) Run(ctx context.Context, job *domain.Job) error {
	return s.Execute(ctx, job, domain.ProcessingStatusAnalyzing)
}

// Execute recomputes and upserts analytics for every section of the job's
// document. progressStatus is the status written at the 85 and 90 progress
// marks; a full pipeline run stays at mapping, since it already advanced
// past analyzing when sections were persisted.
func (s *CalculateAnalyticsStage) Execute(
	ctx context.Context,
	job *domain.Job,
	progressStatus domain.ProcessingStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	doc, err := s.documents.GetByID(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	records := make([]*domain.AnalyticsRecord, 0, len(doc.Sections))
	for i := range doc.Sections {
		record, err := s.aggregateSection(ctx, doc, &doc.Sections[i])
		if err != nil {
			return err
		}
		records = append(records, record)
	}

	if err := s.documents.UpdateProcessing(
		ctx, doc.ID, progressStatus, 85, "",
	); err != nil {
		return fmt.Errorf("failed to record analytics progress: %w", err)
	}

	for _, record := range records {
		if err := s.analytics.Upsert(ctx, record); err != nil {
			return fmt.Errorf("failed to upsert analytics for section %s: %w", record.SectionID, err)
		}
		for _, m := range record.Misconceptions {
			if m.Concept == "" {
				continue
			}
			if err := s.analytics.IncrementStruggle(ctx, doc.ID, m.Concept); err != nil {
				return fmt.Errorf("failed to increment struggle counter: %w", err)
			}
		}
	}

	if err := s.documents.UpdateProcessing(
		ctx, doc.ID, progressStatus, 90, "",
	); err != nil {
		return fmt.Errorf("failed to record analytics progress: %w", err)
	}

	log.Info("analytics recomputed",
		slog.String("document_id", doc.ID.String()),
		slog.Int("section_count", len(records)))
	return nil
}

// aggregateSection builds one analytics record from the section's student
// progress rows.
func (s *CalculateAnalyticsStage) aggregateSection(
	ctx context.Context,
	doc *domain.Document,
	section *domain.Section,
) (*domain.AnalyticsRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.progress.GetBySection(ctx, doc.ID, section.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for section %s: %w", section.ID, err)
	}

	record := &domain.AnalyticsRecord{
		DocumentID: doc.ID,
		SectionID:  section.ID,
		UpdatedAt:  time.Now().UTC(),
	}

	if len(rows) == 0 {
		return record, nil
	}

	var scoreSum, timeSum float64
	responses := make([]string, 0, len(rows))
	for _, row := range rows {
		record.StudentsAttempted++
		if row.Completed {
			record.StudentsCompleted++
		}
		scoreSum += row.Score
		timeSum += row.TimeSeconds
		if strings.TrimSpace(row.Response) != "" {
			responses = append(responses, row.Response)
		}
	}
	record.AverageScore = scoreSum / float64(len(rows))
	record.AverageTimeSeconds = timeSum / float64(len(rows))
	record.ConceptMastery = conceptMastery(section.Concepts, responses, len(rows))

	// Insight summarization is best-effort: a failed or unparseable
	// generative call leaves misconceptions empty rather than failing
	// the whole analytics run.
	if len(responses) > 0 && s.generator != nil {
		misconceptions, err := s.summarizeMisconceptions(ctx, section, responses)
		if err != nil {
			log.Warn("misconception summarization failed",
				slog.String("section_id", section.ID),
				slog.String("error", err.Error()))
		} else {
			record.Misconceptions = misconceptions
		}
	}

	return record, nil
}

// summarizeMisconceptions asks the generative service for misconception
// insights over the section's responses. Fails fast; the caller treats any
// error as "no insights".
func (s *CalculateAnalyticsStage) summarizeMisconceptions(
	ctx context.Context,
	section *domain.Section,
	responses []string,
) ([]domain.Misconception, error) {
	prompt := fmt.Sprintf(
		misconceptionPrompt,
		section.Title,
		strings.Join(section.Concepts, ", "),
		boundedPrefix(strings.Join(responses, "\n---\n"), 4000),
	)

	raw, err := s.generator.Generate(ctx, prompt, generation.Config{
		ResponseFormat:  generation.FormatJSON,
		MaxOutputTokens: 1024,
		NoRetry:         true,
	})
	if err != nil {
		return nil, err
	}

	return ParseMisconceptions(raw)
}

// misconceptionPayload is the loose shape accepted from the generative
// service before normalization.
type misconceptionPayload struct {
	Concept     string `json:"concept"`
	Description string `json:"description"`
	Evidence    string `json:"evidence"`
	Severity    string `json:"severity"`
	Correction  string `json:"correction"`
}

// ParseMisconceptions decodes generative JSON output into normalized
// misconceptions. Entries without a description are dropped and severities
// are coerced to a recognized level.
func ParseMisconceptions(raw string) ([]domain.Misconception, error) {
	var payload []misconceptionPayload
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &payload); err != nil {
		return nil, err
	}

	out := make([]domain.Misconception, 0, len(payload))
	for _, p := range payload {
		desc := strings.TrimSpace(p.Description)
		if desc == "" {
			continue
		}
		out = append(out, domain.Misconception{
			Concept:     strings.TrimSpace(p.Concept),
			Description: desc,
			Evidence:    strings.TrimSpace(p.Evidence),
			Severity:    domain.NormalizeSeverity(p.Severity),
			Correction:  strings.TrimSpace(p.Correction),
		})
	}
	return out, nil
}

// conceptMastery computes the fraction of attempted students whose free-text
// responses mention each concept, as a percentage. A deliberately naive
// signal; it measures vocabulary uptake, not understanding.
func conceptMastery(concepts, responses []string, attempted int) map[string]float64 {
	if len(concepts) == 0 || attempted == 0 {
		return nil
	}

	mastery := make(map[string]float64, len(concepts))
	for _, concept := range concepts {
		needle := strings.ToLower(strings.TrimSpace(concept))
		if needle == "" {
			continue
		}
		matches := 0
		for _, response := range responses {
			if strings.Contains(strings.ToLower(response), needle) {
				matches++
			}
		}
		mastery[concept] = float64(matches) / float64(attempted) * 100
	}
	return mastery
}
