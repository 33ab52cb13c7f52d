package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// PostgresAnalyticsStore implements the store.AnalyticsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAnalyticsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnalyticsStore creates a new PostgreSQL implementation of the
// AnalyticsStore interface. If logger is nil, a default logger will be used.
func NewPostgresAnalyticsStore(db store.DBTX, logger *slog.Logger) *PostgresAnalyticsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnalyticsStore{
		db:     db,
		logger: logger.With(slog.String("component", "analytics_store")),
	}
}

// Ensure PostgresAnalyticsStore implements store.AnalyticsStore interface
var _ store.AnalyticsStore = (*PostgresAnalyticsStore)(nil)

// WithTx implements store.AnalyticsStore.WithTx
func (s *PostgresAnalyticsStore) WithTx(tx *sql.Tx) store.AnalyticsStore {
	return &PostgresAnalyticsStore{
		db:     tx,
		logger: s.logger,
	}
}

// Upsert implements store.AnalyticsStore.Upsert. The record is replaced
// wholesale by its (document_id, section_id) natural key; analytics runs
// recompute rather than merge.
func (s *PostgresAnalyticsStore) Upsert(ctx context.Context, record *domain.AnalyticsRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		return err
	}

	misconceptions, err := json.Marshal(record.Misconceptions)
	if err != nil {
		return err
	}
	mastery, err := json.Marshal(record.ConceptMastery)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO analytics_records (document_id, section_id, students_attempted,
			students_completed, average_score, average_time_seconds,
			misconceptions, concept_mastery, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_id, section_id) DO UPDATE SET
			students_attempted = EXCLUDED.students_attempted,
			students_completed = EXCLUDED.students_completed,
			average_score = EXCLUDED.average_score,
			average_time_seconds = EXCLUDED.average_time_seconds,
			misconceptions = EXCLUDED.misconceptions,
			concept_mastery = EXCLUDED.concept_mastery,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		record.DocumentID,
		record.SectionID,
		record.StudentsAttempted,
		record.StudentsCompleted,
		record.AverageScore,
		record.AverageTimeSeconds,
		misconceptions,
		mastery,
		time.Now().UTC(),
	)
	if err != nil {
		log.Error("failed to upsert analytics record",
			slog.String("error", err.Error()),
			slog.String("document_id", record.DocumentID.String()),
			slog.String("section_id", record.SectionID))
		return MapError(err)
	}

	return nil
}

// GetByDocument implements store.AnalyticsStore.GetByDocument
func (s *PostgresAnalyticsStore) GetByDocument(
	ctx context.Context,
	documentID uuid.UUID,
) ([]*domain.AnalyticsRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, section_id, students_attempted, students_completed,
			average_score, average_time_seconds, misconceptions, concept_mastery,
			updated_at
		FROM analytics_records
		WHERE document_id = $1
		ORDER BY section_id ASC
	`, documentID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []*domain.AnalyticsRecord
	for rows.Next() {
		var record domain.AnalyticsRecord
		var misconceptions, mastery []byte

		err := rows.Scan(
			&record.DocumentID,
			&record.SectionID,
			&record.StudentsAttempted,
			&record.StudentsCompleted,
			&record.AverageScore,
			&record.AverageTimeSeconds,
			&misconceptions,
			&mastery,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}

		if len(misconceptions) > 0 {
			if err := json.Unmarshal(misconceptions, &record.Misconceptions); err != nil {
				return nil, err
			}
		}
		if len(mastery) > 0 {
			if err := json.Unmarshal(mastery, &record.ConceptMastery); err != nil {
				return nil, err
			}
		}

		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return records, nil
}

// IncrementStruggle implements store.AnalyticsStore.IncrementStruggle.
// A single conditional upsert so concurrent analyses never lose increments.
func (s *PostgresAnalyticsStore) IncrementStruggle(
	ctx context.Context,
	documentID uuid.UUID,
	concept string,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO concept_struggles (document_id, concept, count, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (document_id, concept) DO UPDATE SET
			count = concept_struggles.count + 1,
			updated_at = EXCLUDED.updated_at
	`, documentID, concept, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return nil
}

// StruggleCounts implements store.AnalyticsStore.StruggleCounts
func (s *PostgresAnalyticsStore) StruggleCounts(
	ctx context.Context,
	documentID uuid.UUID,
) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT concept, count
		FROM concept_struggles
		WHERE document_id = $1
	`, documentID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var concept string
		var count int
		if err := rows.Scan(&concept, &count); err != nil {
			return nil, MapError(err)
		}
		counts[concept] = count
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return counts, nil
}

// PostgresProgressStore implements store.ProgressStore, reading the student
// progress rows owned by the surrounding product.
type PostgresProgressStore struct {
	db store.DBTX
}

// NewPostgresProgressStore creates a new PostgresProgressStore.
func NewPostgresProgressStore(db store.DBTX) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &PostgresProgressStore{db: db}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// GetBySection implements store.ProgressStore.GetBySection
func (s *PostgresProgressStore) GetBySection(
	ctx context.Context,
	documentID uuid.UUID,
	sectionID string,
) ([]store.ProgressRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id, section_id, completed, score, time_seconds, response
		FROM student_progress
		WHERE document_id = $1 AND section_id = $2
	`, documentID, sectionID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []store.ProgressRow
	for rows.Next() {
		var row store.ProgressRow
		var response sql.NullString
		if err := rows.Scan(
			&row.StudentID,
			&row.SectionID,
			&row.Completed,
			&row.Score,
			&row.TimeSeconds,
			&response,
		); err != nil {
			return nil, MapError(err)
		}
		row.Response = response.String
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return result, nil
}
