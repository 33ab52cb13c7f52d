package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/api/shared"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/generation"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/guard"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/service"
)

// AnalysisHandler handles AI analysis HTTP requests.
type AnalysisHandler struct {
	analysisService *service.AnalysisService
	validator       *validator.Validate
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		validator:       validator.New(),
	}
}

// AnalyzeReviewResponses handles POST /api/analyses/review-responses
// requests. The operation is idempotent per (student, activity, node):
// repeats return the persisted analysis, a concurrent duplicate gets 202.
func (h *AnalysisHandler) AnalyzeReviewResponses(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	analysis, err := h.analysisService.AnalyzeReviewResponses(
		r.Context(), req.StudentID, req.ActivityID, req.NodeID, req.Responses,
	)
	if err != nil {
		if errors.Is(err, guard.ErrAlreadyRunning) {
			shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{
				"status": "analysis already in progress",
			})
			return
		}
		if h.respondRateLimited(w, r, err) {
			return
		}
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AnalyzeReviewResponse{
		Analysis:       analysis,
		TeacherSummary: service.TeacherSummary(analysis),
	})
}

// GenerateFlashcards handles POST /api/flashcards requests.
func (h *AnalysisHandler) GenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	var req FlashcardsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	cards, err := h.analysisService.GenerateFlashcards(r.Context(), req.ActorID, req.Material)
	if err != nil {
		if h.respondRateLimited(w, r, err) {
			return
		}
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, FlashcardsResponse{Cards: cards})
}

// respondRateLimited writes a 429 with the retry-after hint when err is a
// rate limit denial. Reports whether it handled the error.
func (h *AnalysisHandler) respondRateLimited(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) bool {
	var rateErr *generation.RateLimitError
	if !errors.As(err, &rateErr) {
		return false
	}

	shared.RespondWithJSON(w, r, http.StatusTooManyRequests, RateLimitedResponse{
		Error:             "Too many requests, try again shortly",
		RetryAfterSeconds: rateErr.RetryAfter.Seconds(),
	})
	return true
}
