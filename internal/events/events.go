package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type constants for job lifecycle events.
const (
	// EventJobCompleted is emitted after a job reaches the completed state.
	EventJobCompleted = "job_completed"

	// EventJobFailed is emitted after a job exhausts its attempts and
	// reaches the failed state.
	EventJobFailed = "job_failed"
)

// JobEvent describes a job lifecycle transition. It carries enough
// information for downstream handlers (notifications, audit) without
// direct dependencies on the task package.
type JobEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates which lifecycle transition occurred
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// JobLifecyclePayload is the payload carried by job lifecycle events.
type JobLifecyclePayload struct {
	JobID      uuid.UUID `json:"job_id"`
	DocumentID uuid.UUID `json:"document_id"`
	JobType    string    `json:"job_type"`
	Error      string    `json:"error,omitempty"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *JobEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewJobEvent creates a new JobEvent with the specified type and payload.
func NewJobEvent(eventType string, payload interface{}) (*JobEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &JobEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *JobEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the dispatcher to publish events without direct knowledge
// of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *JobEvent) error
}
