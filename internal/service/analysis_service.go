package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/aicache"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/generation"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/guard"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/pipeline"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/ratelimit"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// Operation names used for rate limiting and cache fingerprints.
const (
	opAnalyzeReviewResponses = "analyze-review-responses"
	opGenerateFlashcards     = "generate-flashcards"
)

const reviewAnalysisPrompt = `You are reviewing one student's answers to review questions for a course node.

Student responses:
%s

Identify up to 5 misconceptions these answers reveal. Return a JSON array
where each element has "concept", "description", "evidence",
"severity" (one of "low", "medium", "high"), and "correction".
Return only the JSON array.`

const flashcardPrompt = `Create study flashcards from the following course material.

Material:
%s

Return a JSON array where each element has "front" (a question or cue) and
"back" (the answer). Produce at most 10 cards. Return only the JSON array.`

// AnalysisService fronts every AI-backed product feature outside the
// pipeline. Each generative call goes through the shared substrate: the
// response cache first, then the per-(actor, operation) rate limiter, then
// the generator; expensive idempotent analyses additionally run under the
// cross-process idempotency guard.
type AnalysisService struct {
	guard          *guard.Guard
	limiter        *ratelimit.Limiter
	cache          *aicache.Cache
	generator      generation.Generator
	misconceptions store.MisconceptionStore
	logger         *slog.Logger
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(
	g *guard.Guard,
	limiter *ratelimit.Limiter,
	cache *aicache.Cache,
	generator generation.Generator,
	misconceptions store.MisconceptionStore,
	logger *slog.Logger,
) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		guard:          g,
		limiter:        limiter,
		cache:          cache,
		generator:      generator,
		misconceptions: misconceptions,
		logger:         logger.With(slog.String("component", "analysis_service")),
	}
}

// generate runs one generative call through the cache and rate limiter. The
// cache is consulted before the limiter so a semantically identical repeat
// never spends rate budget or reaches the service.
func (s *AnalysisService) generate(
	ctx context.Context,
	actor, operation string,
	cacheInputs []string,
	prompt string,
	cfg generation.Config,
) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	key := aicache.Key(operation, cacheInputs...)
	if text, ok := s.cache.Get(key); ok {
		log.Debug("cache hit", slog.String("operation", operation))
		return text, nil
	}

	if decision := s.limiter.Check(actor, operation); !decision.Allowed {
		log.Debug("rate limit denied",
			slog.String("actor", actor),
			slog.String("operation", operation),
			slog.Duration("retry_after", decision.RetryAfter))
		return "", generation.NewRateLimitError(decision.RetryAfter)
	}

	text, err := s.generator.Generate(ctx, prompt, cfg)
	if err != nil {
		return "", err
	}

	s.cache.Set(key, text)
	return text, nil
}

// AnalyzeReviewResponses produces and persists the misconception analysis
// for one (student, activity, node) triple. The operation is idempotent:
// concurrent triggers for the same triple yield exactly one persisted row.
// A contended trigger returns guard.ErrAlreadyRunning and callers should
// treat it as "in progress", not as failure.
func (s *AnalysisService) AnalyzeReviewResponses(
	ctx context.Context,
	studentID, activityID uuid.UUID,
	nodeID string,
	responses []string,
) (*domain.StudentMisconception, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(responses) == 0 {
		return nil, domain.ErrEmptyContent
	}

	resource := guard.ResourceKey(
		opAnalyzeReviewResponses,
		studentID.String(), activityID.String(), nodeID,
	)

	var result *domain.StudentMisconception
	err := s.guard.Do(ctx, resource, func(ctx context.Context) error {
		// The guard closes the concurrency window; the authoritative check
		// is the persisted row itself.
		existing, err := s.misconceptions.GetFor(ctx, studentID, activityID, nodeID)
		if err == nil {
			log.Debug("analysis already persisted, returning existing row",
				slog.String("student_id", studentID.String()))
			result = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		prompt := fmt.Sprintf(reviewAnalysisPrompt, strings.Join(responses, "\n---\n"))
		raw, err := s.generate(
			ctx,
			studentID.String(),
			opAnalyzeReviewResponses,
			append([]string{studentID.String(), activityID.String(), nodeID}, responses...),
			prompt,
			generation.Config{
				ResponseFormat:  generation.FormatJSON,
				MaxOutputTokens: 1024,
			},
		)
		if err != nil {
			return err
		}

		misconceptions, err := pipeline.ParseMisconceptions(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
		}

		record, err := domain.NewStudentMisconception(
			studentID, activityID, nodeID,
			misconceptions,
			StudentSummary(misconceptions),
		)
		if err != nil {
			return err
		}

		if err := s.misconceptions.Create(ctx, record); err != nil {
			if errors.Is(err, store.ErrMisconceptionExists) {
				// Lost the race to a competing process after our existence
				// check; the surviving row is the result.
				existing, getErr := s.misconceptions.GetFor(ctx, studentID, activityID, nodeID)
				if getErr != nil {
					return getErr
				}
				result = existing
				return nil
			}
			return err
		}

		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GenerateFlashcards produces flashcard JSON for the given material,
// serving repeat requests for the same content from the response cache.
func (s *AnalysisService) GenerateFlashcards(
	ctx context.Context,
	actor uuid.UUID,
	material string,
) (string, error) {
	if strings.TrimSpace(material) == "" {
		return "", domain.ErrEmptyContent
	}

	return s.generate(
		ctx,
		actor.String(),
		opGenerateFlashcards,
		[]string{material},
		fmt.Sprintf(flashcardPrompt, material),
		generation.Config{
			ResponseFormat:  generation.FormatJSON,
			MaxOutputTokens: 2048,
		},
	)
}
