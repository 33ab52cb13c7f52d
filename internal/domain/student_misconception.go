package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// StudentMisconception validation errors
var (
	// ErrStudentMisconceptionKeyEmpty is returned when any natural-key field
	// (student, activity, node) is empty or nil.
	ErrStudentMisconceptionKeyEmpty = errors.New(
		"student misconception key fields cannot be empty")
)

// StudentMisconception is one persisted analysis of a student's review
// responses for a (student, activity, node) triple. The idempotent-trigger
// contract guarantees at most one row per triple: a second concurrent
// analysis request detects the existing row and no-ops.
type StudentMisconception struct {
	ID             uuid.UUID       `json:"id"`
	StudentID      uuid.UUID       `json:"student_id"`
	ActivityID     uuid.UUID       `json:"activity_id"`
	NodeID         string          `json:"node_id"`
	Misconceptions []Misconception `json:"misconceptions"`
	Summary        string          `json:"summary,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewStudentMisconception creates a new analysis row for the given triple.
// Returns an error if validation fails.
func NewStudentMisconception(
	studentID, activityID uuid.UUID,
	nodeID string,
	misconceptions []Misconception,
	summary string,
) (*StudentMisconception, error) {
	m := &StudentMisconception{
		ID:             uuid.New(),
		StudentID:      studentID,
		ActivityID:     activityID,
		NodeID:         nodeID,
		Misconceptions: misconceptions,
		Summary:        summary,
		CreatedAt:      time.Now().UTC(),
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// Validate checks if the StudentMisconception has valid data.
func (m *StudentMisconception) Validate() error {
	if m.ID == uuid.Nil {
		return ErrInvalidID
	}

	if m.StudentID == uuid.Nil || m.ActivityID == uuid.Nil || m.NodeID == "" {
		return ErrStudentMisconceptionKeyEmpty
	}

	return nil
}
