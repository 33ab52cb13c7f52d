package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

// AnalyticsStore defines the interface for persisting per-section analytics
// aggregates and concept struggle counters.
type AnalyticsStore interface {
	// Upsert writes the record keyed by (document_id, section_id), replacing
	// any previous aggregate for that section wholesale.
	Upsert(ctx context.Context, record *domain.AnalyticsRecord) error

	// GetByDocument retrieves all analytics records for a document.
	GetByDocument(ctx context.Context, documentID uuid.UUID) ([]*domain.AnalyticsRecord, error)

	// IncrementStruggle bumps the "common struggles" counter for a
	// (document, concept) pair. The increment is a single conditional
	// upsert, so concurrent analyses never lose counts.
	IncrementStruggle(ctx context.Context, documentID uuid.UUID, concept string) error

	// StruggleCounts returns the per-concept struggle counters for a document.
	StruggleCounts(ctx context.Context, documentID uuid.UUID) (map[string]int, error)

	// WithTx returns a new AnalyticsStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AnalyticsStore
}

// ProgressRow is one student's recorded interaction with a section, consumed
// by analytics aggregation. Rows are owned by the surrounding product; this
// core only reads them.
type ProgressRow struct {
	StudentID   uuid.UUID
	SectionID   string
	Completed   bool
	Score       float64
	TimeSeconds float64
	Response    string
}

// ProgressStore reads student progress rows for analytics computation.
type ProgressStore interface {
	// GetBySection retrieves all progress rows recorded against a section.
	GetBySection(ctx context.Context, documentID uuid.UUID, sectionID string) ([]ProgressRow, error)
}
