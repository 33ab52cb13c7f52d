package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/api/shared"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/service"
)

// DocumentHandler handles document-related HTTP requests.
type DocumentHandler struct {
	documentService *service.DocumentService
	validator       *validator.Validate
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		validator:       validator.New(),
	}
}

// CreateDocument handles POST /api/documents requests. The document and its
// full-pipeline job are created together; processing happens asynchronously
// via the dispatcher, so the response is 202 Accepted.
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	doc, job, err := h.documentService.CreateDocument(
		r.Context(), req.OwnerID, req.Title, req.FilePath, req.MimeType,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, CreateDocumentResponse{
		Document: doc,
		Job:      job,
	})
}

// GetDocument handles GET /api/documents/{id} requests.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	doc, err := h.documentService.GetDocument(r.Context(), documentID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, doc)
}

// EnqueueJob handles POST /api/documents/{id}/jobs requests, the explicit
// reprocessing trigger.
func (h *DocumentHandler) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	documentID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	var req EnqueueJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	job, err := h.documentService.EnqueueJob(r.Context(), documentID, domain.JobType(req.JobType))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, job)
}
