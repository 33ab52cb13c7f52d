package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/extraction"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/generation"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/objectstore"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// SectionSource tags how a set of sections was produced, so callers can
// distinguish a clean AI parse from degraded fallback output.
type SectionSource string

// Possible section extraction outcomes.
const (
	// SourceParsed means the generative service returned sections that
	// parsed cleanly.
	SourceParsed SectionSource = "parsed"

	// SourceFallback means the generative path failed and the sections were
	// synthesized from heading lines in the raw text.
	SourceFallback SectionSource = "fallback"

	// SourceFailed means neither path produced any sections.
	SourceFailed SectionSource = "failed"
)

// SectionExtraction is the tagged result of deriving sections from a
// document's text.
type SectionExtraction struct {
	Source   SectionSource
	Sections []domain.Section

	// Reason explains why the fallback was used or why extraction failed.
	Reason string
}

const sectionPrompt = `You are analyzing a course document to identify its structural sections.

Return a JSON array. Each element must be an object with these fields:
- "title": the section heading (string, required)
- "location": where in the document the section appears, e.g. a page or chapter hint (string)
- "concepts": the key concepts the section teaches (array of strings)
- "description": a one-sentence summary of the section (string)

Return only the JSON array, no surrounding prose.

Document text:
%s`

// ExtractSectionsStage turns a document's uploaded bytes into persisted raw
// text and an ordered list of sections. Section derivation prefers the
// generative service and degrades to a heading scan of the raw text; only
// when both paths produce nothing does the stage fail.
type ExtractSectionsStage struct {
	db             *sql.DB
	documents      store.DocumentStore
	jobs           store.JobStore
	storage        objectstore.Store
	extractor      extraction.TextExtractor
	generator      generation.Generator
	bucket         string
	maxPromptChars int
	logger         *slog.Logger
}

// NewExtractSectionsStage creates the section extraction stage.
func NewExtractSectionsStage(
	db *sql.DB,
	documents store.DocumentStore,
	jobs store.JobStore,
	storage objectstore.Store,
	extractor extraction.TextExtractor,
	generator generation.Generator,
	bucket string,
	maxPromptChars int,
	logger *slog.Logger,
) *ExtractSectionsStage {
	if logger == nil {
		logger = slog.Default()
	}
	if maxPromptChars <= 0 {
		maxPromptChars = 8000
	}

	return &ExtractSectionsStage{
		db:             db,
		documents:      documents,
		jobs:           jobs,
		storage:        storage,
		extractor:      extractor,
		generator:      generator,
		bucket:         bucket,
		maxPromptChars: maxPromptChars,
		logger:         logger.With(slog.String("component", "extract_sections_stage")),
	}
}

// Name implements task.Stage.
func (s *ExtractSectionsStage) Name() domain.JobType {
	return domain.JobTypeExtractSections
}

// Run implements task.Stage. Standalone extraction hands the document to
// analytics, so the post-extraction status is analyzing.
func (s *ExtractSectionsStage) Run(ctx context.Context, job *domain.Job) error {
	_, err := s.Execute(ctx, job, domain.ProcessingStatusAnalyzing)
	return err
}

// Execute runs the stage and reports how the sections were produced.
// nextStatus is the status written once sections are persisted; the full
// pipeline passes mapping, standalone runs pass analyzing.
func (s *ExtractSectionsStage) Execute(
	ctx context.Context,
	job *domain.Job,
	nextStatus domain.ProcessingStatus,
) (SectionExtraction, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	doc, err := s.documents.GetByID(ctx, job.DocumentID)
	if err != nil {
		return SectionExtraction{}, fmt.Errorf("failed to load document: %w", err)
	}

	if err := s.documents.UpdateProcessing(
		ctx, doc.ID, domain.ProcessingStatusExtracting, 20, "",
	); err != nil {
		return SectionExtraction{}, fmt.Errorf("failed to mark document extracting: %w", err)
	}

	text, err := s.ensureRawText(ctx, doc)
	if err != nil {
		return SectionExtraction{}, err
	}

	if err := s.documents.UpdateProcessing(
		ctx, doc.ID, domain.ProcessingStatusExtracting, 40, "",
	); err != nil {
		return SectionExtraction{}, fmt.Errorf("failed to record extraction progress: %w", err)
	}

	result := s.deriveSections(ctx, doc.ID, text)
	if result.Source == SourceFailed {
		return result, fmt.Errorf("section extraction produced no sections: %s", result.Reason)
	}
	if result.Source == SourceFallback {
		log.Warn("section extraction degraded to heading fallback",
			slog.String("document_id", doc.ID.String()),
			slog.String("reason", result.Reason),
			slog.Int("section_count", len(result.Sections)))
	}

	if err := s.documents.UpdateProcessing(
		ctx, doc.ID, domain.ProcessingStatusExtracting, 60, "",
	); err != nil {
		return result, fmt.Errorf("failed to record extraction progress: %w", err)
	}

	// Sections and the embedding follow-up job commit together, so the
	// follow-up can never reference sections that were rolled back.
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.documents.WithTx(tx).ReplaceSections(ctx, doc.ID, result.Sections); err != nil {
			return fmt.Errorf("failed to persist sections: %w", err)
		}

		followUp, err := domain.NewJob(doc.ID, domain.JobTypeGenerateEmbeddings, job.Priority+1)
		if err != nil {
			return fmt.Errorf("failed to build embedding job: %w", err)
		}
		if err := s.jobs.WithTx(tx).Create(ctx, followUp); err != nil {
			return fmt.Errorf("failed to enqueue embedding job: %w", err)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	if err := s.documents.UpdateProcessing(ctx, doc.ID, nextStatus, 80, ""); err != nil {
		return result, fmt.Errorf("failed to advance document status: %w", err)
	}

	log.Info("sections extracted",
		slog.String("document_id", doc.ID.String()),
		slog.String("source", string(result.Source)),
		slog.Int("section_count", len(result.Sections)))

	return result, nil
}

// ensureRawText returns the document's plain text, extracting and persisting
// it first when absent.
func (s *ExtractSectionsStage) ensureRawText(
	ctx context.Context,
	doc *domain.Document,
) (string, error) {
	if doc.RawText != nil && strings.TrimSpace(*doc.RawText) != "" {
		return *doc.RawText, nil
	}

	path := doc.FilePath
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		resolved, err := objectstore.PathFromSignedURL(path, s.bucket)
		if err != nil {
			return "", fmt.Errorf("failed to resolve storage path: %w", err)
		}
		path = resolved
	}

	data, err := s.storage.Download(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to download document bytes: %w", err)
	}

	text, err := s.extractor.ExtractText(ctx, data, doc.MimeType)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", extraction.ErrEmptyDocument
	}

	if err := s.documents.SaveRawText(ctx, doc.ID, text); err != nil {
		return "", fmt.Errorf("failed to persist raw text: %w", err)
	}

	return text, nil
}

// deriveSections asks the generative service for a structured section list
// and falls back to a heading scan when the call or its parse fails.
func (s *ExtractSectionsStage) deriveSections(
	ctx context.Context,
	documentID uuid.UUID,
	text string,
) SectionExtraction {
	prompt := fmt.Sprintf(sectionPrompt, boundedPrefix(text, s.maxPromptChars))

	raw, err := s.generator.Generate(ctx, prompt, generation.Config{
		ResponseFormat:  generation.FormatJSON,
		MaxOutputTokens: 2048,
	})
	if err != nil {
		return s.fallback(documentID, text, fmt.Sprintf("generation failed: %v", err))
	}

	sections, err := parseSectionList(documentID, raw)
	if err != nil {
		return s.fallback(documentID, text, fmt.Sprintf("unparseable response: %v", err))
	}

	return SectionExtraction{Source: SourceParsed, Sections: sections}
}

func (s *ExtractSectionsStage) fallback(
	documentID uuid.UUID,
	text, reason string,
) SectionExtraction {
	sections := headingSections(documentID, text)
	if len(sections) == 0 {
		return SectionExtraction{
			Source: SourceFailed,
			Reason: reason + "; no headings found for fallback",
		}
	}
	return SectionExtraction{
		Source:   SourceFallback,
		Sections: sections,
		Reason:   reason,
	}
}

// sectionPayload is the loose shape accepted from the generative service.
type sectionPayload struct {
	Title       string   `json:"title"`
	Location    string   `json:"location"`
	Concepts    []string `json:"concepts"`
	Description string   `json:"description"`
}

// parseSectionList decodes a generative response into ordered sections.
// Entries without a title are dropped; an empty result is an error so the
// caller can fall back.
func parseSectionList(documentID uuid.UUID, raw string) ([]domain.Section, error) {
	var payload []sectionPayload
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &payload); err != nil {
		return nil, err
	}

	sections := make([]domain.Section, 0, len(payload))
	for _, p := range payload {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}
		pos := len(sections)
		sections = append(sections, domain.Section{
			ID:          sectionID(documentID, pos),
			DocumentID:  documentID,
			Position:    pos,
			Title:       title,
			Location:    strings.TrimSpace(p.Location),
			Concepts:    p.Concepts,
			Description: strings.TrimSpace(p.Description),
		})
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("response contained no titled sections")
	}
	return sections, nil
}

// sectionID synthesizes a stable section identifier from the document and
// the section's position.
func sectionID(documentID uuid.UUID, position int) string {
	return fmt.Sprintf("%.8s-sec-%d", documentID.String(), position+1)
}

// boundedPrefix truncates text to at most limit characters on a rune
// boundary.
func boundedPrefix(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// stripCodeFences removes a surrounding markdown code fence, which some
// models wrap around JSON output even when asked not to.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
