package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity grades how badly a misconception impedes understanding.
type Severity string

// Recognized severity levels.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Analytics-specific validation errors
var (
	// ErrAnalyticsDocumentIDEmpty is returned when the document ID is empty or nil.
	ErrAnalyticsDocumentIDEmpty = errors.New("analytics document ID cannot be empty")

	// ErrAnalyticsSectionIDEmpty is returned when the section ID is empty.
	ErrAnalyticsSectionIDEmpty = errors.New("analytics section ID cannot be empty")
)

// Misconception is one normalized misunderstanding surfaced from student
// responses. The generative service returns these as loosely shaped JSON;
// NormalizeSeverity and the aggregation layer coerce them into this form.
type Misconception struct {
	Concept     string   `json:"concept"`
	Description string   `json:"description"`
	Evidence    string   `json:"evidence,omitempty"`
	Severity    Severity `json:"severity"`
	Correction  string   `json:"correction,omitempty"`
}

// AnalyticsRecord is the per-(document, section) aggregate of student
// performance. Recomputed wholesale on each analytics run and upserted by
// its (DocumentID, SectionID) natural key, never merged incrementally.
type AnalyticsRecord struct {
	DocumentID         uuid.UUID          `json:"document_id"`
	SectionID          string             `json:"section_id"`
	StudentsAttempted  int                `json:"students_attempted"`
	StudentsCompleted  int                `json:"students_completed"`
	AverageScore       float64            `json:"average_score"`
	AverageTimeSeconds float64            `json:"average_time_seconds"`
	Misconceptions     []Misconception    `json:"misconceptions,omitempty"`
	ConceptMastery     map[string]float64 `json:"concept_mastery,omitempty"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Validate checks if the AnalyticsRecord has valid key fields.
func (r *AnalyticsRecord) Validate() error {
	if r.DocumentID == uuid.Nil {
		return ErrAnalyticsDocumentIDEmpty
	}

	if r.SectionID == "" {
		return ErrAnalyticsSectionIDEmpty
	}

	return nil
}

// NormalizeSeverity coerces a free-form severity string from the generative
// service into one of the recognized levels, defaulting to medium when the
// value is unrecognized.
func NormalizeSeverity(raw string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case SeverityLow:
		return SeverityLow
	case SeverityHigh:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}
