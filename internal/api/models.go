package api

import (
	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

// Common request/response structures

// CreateDocumentRequest defines the payload for registering an uploaded
// document.
type CreateDocumentRequest struct {
	OwnerID  uuid.UUID `json:"owner_id"  validate:"required"`
	Title    string    `json:"title"     validate:"required,max=500"`
	FilePath string    `json:"file_path" validate:"required"`
	MimeType string    `json:"mime_type" validate:"required"`
}

// CreateDocumentResponse reports the created document and its pipeline job.
type CreateDocumentResponse struct {
	Document *domain.Document `json:"document"`
	Job      *domain.Job      `json:"job"`
}

// EnqueueJobRequest defines the payload for an explicit reprocessing trigger.
type EnqueueJobRequest struct {
	JobType string `json:"job_type" validate:"required,oneof=extract_sections map_activities calculate_analytics full_pipeline generate_embeddings"`
}

// DispatchRequest defines the payload for a dispatch invocation.
type DispatchRequest struct {
	// MaxJobs bounds the batch size; zero or absent uses the server default.
	MaxJobs int `json:"max_jobs" validate:"gte=0,lte=100"`
}

// StatusResponse reports a document's processing state for polling
// collaborators.
type StatusResponse struct {
	ProcessingStatus   string `json:"processing_status"`
	ProcessingProgress int    `json:"processing_progress"`
	ProcessingError    string `json:"processing_error,omitempty"`
	LatestJobStatus    string `json:"latest_job_status,omitempty"`
	LatestJobError     string `json:"latest_job_error,omitempty"`
}

// PendingJobsResponse reports the global pending job count.
type PendingJobsResponse struct {
	Pending int `json:"pending"`
}

// AnalyzeReviewRequest defines the payload for triggering a misconception
// analysis over one student's review responses.
type AnalyzeReviewRequest struct {
	StudentID  uuid.UUID `json:"student_id"  validate:"required"`
	ActivityID uuid.UUID `json:"activity_id" validate:"required"`
	NodeID     string    `json:"node_id"     validate:"required,max=200"`
	Responses  []string  `json:"responses"   validate:"required,min=1,dive,required"`
}

// AnalyzeReviewResponse reports the persisted analysis.
type AnalyzeReviewResponse struct {
	Analysis       *domain.StudentMisconception `json:"analysis"`
	TeacherSummary string                       `json:"teacher_summary"`
}

// FlashcardsRequest defines the payload for generating study flashcards.
type FlashcardsRequest struct {
	ActorID  uuid.UUID `json:"actor_id" validate:"required"`
	Material string    `json:"material" validate:"required,min=1"`
}

// FlashcardsResponse carries the generated flashcard JSON.
type FlashcardsResponse struct {
	Cards string `json:"cards"`
}

// RateLimitedResponse reports a rate-limit denial with a retry hint so
// callers can present "try again in N seconds".
type RateLimitedResponse struct {
	Error             string  `json:"error"`
	RetryAfterSeconds float64 `json:"retry_after_seconds"`
}
