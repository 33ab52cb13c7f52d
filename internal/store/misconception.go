package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

// MisconceptionStore defines the interface for persisting per-student
// misconception analyses.
type MisconceptionStore interface {
	// Create saves a new analysis row. Returns ErrMisconceptionExists when a
	// row for the same (student, activity, node) triple already exists; the
	// unique constraint is the last line of defense behind the idempotency
	// guard.
	Create(ctx context.Context, m *domain.StudentMisconception) error

	// ExistsFor reports whether an analysis row already exists for the
	// (student, activity, node) triple. Callers re-check this after
	// acquiring the guard, before starting expensive work.
	ExistsFor(ctx context.Context, studentID, activityID uuid.UUID, nodeID string) (bool, error)

	// GetFor retrieves the analysis row for a triple.
	// Returns ErrNotFound if none exists.
	GetFor(
		ctx context.Context,
		studentID, activityID uuid.UUID,
		nodeID string,
	) (*domain.StudentMisconception, error)

	// WithTx returns a new MisconceptionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) MisconceptionStore
}
