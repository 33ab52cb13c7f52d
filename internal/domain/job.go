package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobType identifies the unit of pipeline work a job performs.
type JobType string

// Supported job types.
const (
	JobTypeExtractSections    JobType = "extract_sections"
	JobTypeMapActivities      JobType = "map_activities"
	JobTypeCalculateAnalytics JobType = "calculate_analytics"
	JobTypeFullPipeline       JobType = "full_pipeline"

	// JobTypeGenerateEmbeddings is the durable follow-up enqueued when new
	// sections are written, so embedding generation is observable and
	// retryable instead of a best-effort side call.
	JobTypeGenerateEmbeddings JobType = "generate_embeddings"
)

// JobStatus represents the current state of a job.
type JobStatus string

// Possible job status values.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// DefaultMaxAttempts is the attempt budget assigned to new jobs unless the
// caller overrides it.
const DefaultMaxAttempts = 3

// Job-specific validation errors
var (
	// ErrJobIDEmpty is returned when a job ID is empty or nil.
	ErrJobIDEmpty = errors.New("job ID cannot be empty")

	// ErrJobDocumentIDEmpty is returned when a job's document ID is empty or nil.
	ErrJobDocumentIDEmpty = errors.New("job document ID cannot be empty")

	// ErrInvalidJobType is returned when a job type is not recognized.
	ErrInvalidJobType = errors.New("invalid job type")

	// ErrInvalidJobStatus is returned when a job status is not valid.
	ErrInvalidJobStatus = errors.New("invalid job status")

	// ErrInvalidJobTransition is returned when a status change violates the
	// pending → processing → {completed, pending, failed} lifecycle.
	ErrInvalidJobTransition = errors.New("invalid job status transition")

	// ErrJobAttemptsExceeded is returned when attempts exceed max_attempts+1.
	ErrJobAttemptsExceeded = errors.New("job attempts exceed maximum")
)

// Job is a persisted unit of pipeline work against one document. Jobs are
// created when a document is uploaded, mutated only by the dispatcher, and
// never deleted so the processing history remains auditable.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	DocumentID   uuid.UUID  `json:"document_id"`
	Type         JobType    `json:"job_type"`
	Status       JobStatus  `json:"status"`
	Priority     int        `json:"priority"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a new pending Job for the given document and type.
// Priority follows "lower value runs sooner". Returns an error if
// validation fails.
func NewJob(documentID uuid.UUID, jobType JobType, priority int) (*Job, error) {
	job := &Job{
		ID:          uuid.New(),
		DocumentID:  documentID,
		Type:        jobType,
		Status:      JobStatusPending,
		Priority:    priority,
		Attempts:    0,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrJobIDEmpty
	}

	if j.DocumentID == uuid.Nil {
		return ErrJobDocumentIDEmpty
	}

	if !isValidJobType(j.Type) {
		return ErrInvalidJobType
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	if j.MaxAttempts <= 0 {
		return ErrJobAttemptsExceeded
	}

	if j.Attempts > j.MaxAttempts+1 {
		return ErrJobAttemptsExceeded
	}

	return nil
}

// IsTerminal reports whether the job has reached a terminal status.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// CanTransitionTo reports whether moving from the job's current status to the
// target status is a legal lifecycle step.
func (j *Job) CanTransitionTo(target JobStatus) bool {
	switch j.Status {
	case JobStatusPending:
		return target == JobStatusProcessing
	case JobStatusProcessing:
		// Processing can complete, fail terminally, or requeue for a retry.
		return target == JobStatusCompleted ||
			target == JobStatusFailed ||
			target == JobStatusPending
	default:
		return false
	}
}

// AttemptsRemaining reports whether the job still has retry budget left.
func (j *Job) AttemptsRemaining() bool {
	return j.Attempts < j.MaxAttempts
}

func isValidJobType(t JobType) bool {
	switch t {
	case JobTypeExtractSections, JobTypeMapActivities, JobTypeCalculateAnalytics,
		JobTypeFullPipeline, JobTypeGenerateEmbeddings:
		return true
	default:
		return false
	}
}

func isValidJobStatus(s JobStatus) bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}
