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

// PostgresDocumentStore implements the store.DocumentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDocumentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDocumentStore creates a new PostgreSQL implementation of the
// DocumentStore interface. If logger is nil, a default logger will be used.
func NewPostgresDocumentStore(db store.DBTX, logger *slog.Logger) *PostgresDocumentStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDocumentStore{
		db:     db,
		logger: logger.With(slog.String("component", "document_store")),
	}
}

// Ensure PostgresDocumentStore implements store.DocumentStore interface
var _ store.DocumentStore = (*PostgresDocumentStore)(nil)

// WithTx implements store.DocumentStore.WithTx
func (s *PostgresDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore {
	return &PostgresDocumentStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.DocumentStore.Create
func (s *PostgresDocumentStore) Create(ctx context.Context, doc *domain.Document) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := doc.Validate(); err != nil {
		log.Warn("document validation failed during create",
			slog.String("error", err.Error()),
			slog.String("document_id", doc.ID.String()))
		return err
	}

	query := `
		INSERT INTO documents (id, owner_id, title, file_path, mime_type, raw_text,
			processing_status, processing_progress, processing_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OwnerID,
		doc.Title,
		doc.FilePath,
		doc.MimeType,
		doc.RawText,
		doc.ProcessingStatus,
		doc.ProcessingProgress,
		doc.ProcessingError,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create document",
			slog.String("error", err.Error()),
			slog.String("document_id", doc.ID.String()))
		return MapError(err)
	}

	log.Info("document created",
		slog.String("document_id", doc.ID.String()),
		slog.String("owner_id", doc.OwnerID.String()))
	return nil
}

// GetByID implements store.DocumentStore.GetByID
func (s *PostgresDocumentStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Document, error) {
	query := `
		SELECT id, owner_id, title, file_path, mime_type, raw_text,
			processing_status, processing_progress, processing_error,
			created_at, updated_at
		FROM documents
		WHERE id = $1
	`

	var doc domain.Document
	var rawText sql.NullString
	var processingError sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.Title,
		&doc.FilePath,
		&doc.MimeType,
		&rawText,
		&doc.ProcessingStatus,
		&doc.ProcessingProgress,
		&processingError,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrDocumentNotFound
		}
		return nil, MapError(err)
	}

	if rawText.Valid {
		doc.RawText = &rawText.String
	}
	doc.ProcessingError = processingError.String

	sections, err := s.getSections(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Sections = sections

	return &doc, nil
}

// SaveRawText implements store.DocumentStore.SaveRawText
func (s *PostgresDocumentStore) SaveRawText(
	ctx context.Context,
	id uuid.UUID,
	rawText string,
) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET raw_text = $1, updated_at = $2
		WHERE id = $3
	`, rawText, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "document")
}

// ReplaceSections implements store.DocumentStore.ReplaceSections.
// Must be called within a transaction (via WithTx) so the delete and inserts
// are atomic with any accompanying job enqueue.
func (s *PostgresDocumentStore) ReplaceSections(
	ctx context.Context,
	id uuid.UUID,
	sections []domain.Section,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sections WHERE document_id = $1`, id); err != nil {
		return MapError(err)
	}

	query := `
		INSERT INTO sections (id, document_id, position, title, location, concepts, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, section := range sections {
		concepts, err := json.Marshal(section.Concepts)
		if err != nil {
			return err
		}

		_, err = s.db.ExecContext(
			ctx,
			query,
			section.ID,
			id,
			section.Position,
			section.Title,
			section.Location,
			concepts,
			section.Description,
		)
		if err != nil {
			log.Error("failed to insert section",
				slog.String("error", err.Error()),
				slog.String("document_id", id.String()),
				slog.String("section_id", section.ID))
			return MapError(err)
		}
	}

	log.Info("sections replaced",
		slog.String("document_id", id.String()),
		slog.Int("count", len(sections)))
	return nil
}

// UpdateProcessing implements store.DocumentStore.UpdateProcessing.
// Progress writes are monotone: GREATEST keeps the stored value when a
// concurrent or out-of-order write carries a lower one, except that a
// restart back to uploading/extracting resets it.
func (s *PostgresDocumentStore) UpdateProcessing(
	ctx context.Context,
	id uuid.UUID,
	status domain.ProcessingStatus,
	progress int,
	errMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var query string
	if status == domain.ProcessingStatusUploading || status == domain.ProcessingStatusExtracting {
		// A fresh job restart may legitimately rewind progress.
		query = `
			UPDATE documents
			SET processing_status = $1, processing_progress = $2,
				processing_error = $3, updated_at = $4
			WHERE id = $5
		`
	} else {
		query = `
			UPDATE documents
			SET processing_status = $1,
				processing_progress = GREATEST(processing_progress, $2),
				processing_error = $3, updated_at = $4
			WHERE id = $5
		`
	}

	result, err := s.db.ExecContext(ctx, query, status, progress, errMsg, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update document processing state",
			slog.String("error", err.Error()),
			slog.String("document_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "document"); err != nil {
		return err
	}

	log.Debug("document processing state updated",
		slog.String("document_id", id.String()),
		slog.String("status", string(status)),
		slog.Int("progress", progress))
	return nil
}

// getSections loads a document's sections ordered by position.
func (s *PostgresDocumentStore) getSections(
	ctx context.Context,
	documentID uuid.UUID,
) ([]domain.Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, position, title, location, concepts, description
		FROM sections
		WHERE document_id = $1
		ORDER BY position ASC
	`, documentID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var sections []domain.Section
	for rows.Next() {
		var section domain.Section
		var location, description sql.NullString
		var concepts []byte

		err := rows.Scan(
			&section.ID,
			&section.DocumentID,
			&section.Position,
			&section.Title,
			&location,
			&concepts,
			&description,
		)
		if err != nil {
			return nil, MapError(err)
		}

		section.Location = location.String
		section.Description = description.String
		if len(concepts) > 0 {
			if err := json.Unmarshal(concepts, &section.Concepts); err != nil {
				return nil, err
			}
		}

		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return sections, nil
}
