package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// PostgresMisconceptionStore implements the store.MisconceptionStore
// interface using a PostgreSQL database as the storage backend.
type PostgresMisconceptionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMisconceptionStore creates a new PostgreSQL implementation of
// the MisconceptionStore interface. If logger is nil, a default logger will
// be used.
func NewPostgresMisconceptionStore(
	db store.DBTX,
	logger *slog.Logger,
) *PostgresMisconceptionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMisconceptionStore{
		db:     db,
		logger: logger.With(slog.String("component", "misconception_store")),
	}
}

// Ensure PostgresMisconceptionStore implements store.MisconceptionStore interface
var _ store.MisconceptionStore = (*PostgresMisconceptionStore)(nil)

// WithTx implements store.MisconceptionStore.WithTx
func (s *PostgresMisconceptionStore) WithTx(tx *sql.Tx) store.MisconceptionStore {
	return &PostgresMisconceptionStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.MisconceptionStore.Create. The unique index on
// (student_id, activity_id, node_id) makes the insert the final arbiter
// of the exactly-one-row contract.
func (s *PostgresMisconceptionStore) Create(
	ctx context.Context,
	m *domain.StudentMisconception,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := m.Validate(); err != nil {
		return err
	}

	misconceptions, err := json.Marshal(m.Misconceptions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO student_misconceptions (id, student_id, activity_id, node_id,
			misconceptions, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		m.ID,
		m.StudentID,
		m.ActivityID,
		m.NodeID,
		misconceptions,
		m.Summary,
		m.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("misconception row already exists",
				slog.String("student_id", m.StudentID.String()),
				slog.String("activity_id", m.ActivityID.String()),
				slog.String("node_id", m.NodeID))
			return store.ErrMisconceptionExists
		}
		log.Error("failed to create misconception row",
			slog.String("error", err.Error()),
			slog.String("student_id", m.StudentID.String()))
		return MapError(err)
	}

	log.Info("misconception analysis persisted",
		slog.String("student_id", m.StudentID.String()),
		slog.String("activity_id", m.ActivityID.String()),
		slog.String("node_id", m.NodeID),
		slog.Int("misconception_count", len(m.Misconceptions)))
	return nil
}

// ExistsFor implements store.MisconceptionStore.ExistsFor
func (s *PostgresMisconceptionStore) ExistsFor(
	ctx context.Context,
	studentID, activityID uuid.UUID,
	nodeID string,
) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM student_misconceptions
			WHERE student_id = $1 AND activity_id = $2 AND node_id = $3
		)
	`, studentID, activityID, nodeID).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// GetFor implements store.MisconceptionStore.GetFor
func (s *PostgresMisconceptionStore) GetFor(
	ctx context.Context,
	studentID, activityID uuid.UUID,
	nodeID string,
) (*domain.StudentMisconception, error) {
	query := `
		SELECT id, student_id, activity_id, node_id, misconceptions, summary, created_at
		FROM student_misconceptions
		WHERE student_id = $1 AND activity_id = $2 AND node_id = $3
	`

	var m domain.StudentMisconception
	var misconceptions []byte
	var summary sql.NullString

	err := s.db.QueryRowContext(ctx, query, studentID, activityID, nodeID).Scan(
		&m.ID,
		&m.StudentID,
		&m.ActivityID,
		&m.NodeID,
		&misconceptions,
		&summary,
		&m.CreatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, MapError(err)
	}

	m.Summary = summary.String
	if len(misconceptions) > 0 {
		if err := json.Unmarshal(misconceptions, &m.Misconceptions); err != nil {
			return nil, err
		}
	}

	return &m, nil
}
