package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/api/shared"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/task"
)

// JobHandler handles dispatch and status HTTP requests.
type JobHandler struct {
	dispatcher *task.Dispatcher
	validator  *validator.Validate
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(dispatcher *task.Dispatcher) *JobHandler {
	return &JobHandler{
		dispatcher: dispatcher,
		validator:  validator.New(),
	}
}

// Dispatch handles POST /api/jobs/dispatch requests. The body is optional;
// an absent or zero max_jobs uses the server default.
func (h *JobHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
			return
		}
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req.MaxJobs)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// PendingJobs handles GET /api/jobs/pending requests.
func (h *JobHandler) PendingJobs(w http.ResponseWriter, r *http.Request) {
	pending, err := h.dispatcher.PendingCount(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PendingJobsResponse{Pending: pending})
}

// DocumentStatus handles GET /api/documents/{id}/status requests.
func (h *JobHandler) DocumentStatus(w http.ResponseWriter, r *http.Request) {
	documentID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	status, err := h.dispatcher.Status(r.Context(), documentID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := StatusResponse{
		ProcessingStatus:   string(status.Document.ProcessingStatus),
		ProcessingProgress: status.Document.ProcessingProgress,
		ProcessingError:    status.Document.ProcessingError,
	}
	if status.Job != nil {
		resp.LatestJobStatus = string(status.Job.Status)
		resp.LatestJobError = status.Job.ErrorMessage
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
