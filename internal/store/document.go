package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

// DocumentStore defines the interface for persisting documents and their
// sections.
type DocumentStore interface {
	// Create saves a new document to the store.
	Create(ctx context.Context, doc *domain.Document) error

	// GetByID retrieves a document by its unique ID, including its sections.
	// Returns ErrDocumentNotFound if the document does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)

	// SaveRawText persists the extracted plain text for a document.
	SaveRawText(ctx context.Context, id uuid.UUID, rawText string) error

	// ReplaceSections removes any existing sections for the document and
	// writes the given ones in a single transaction. Sections are immutable
	// per job run, so reprocessing replaces them wholesale.
	ReplaceSections(ctx context.Context, id uuid.UUID, sections []domain.Section) error

	// UpdateProcessing writes the document's processing status, progress and
	// error note. Progress is monotone while the document is non-terminal:
	// a lower value than the stored one is ignored unless the status change
	// restarts the pipeline.
	UpdateProcessing(
		ctx context.Context,
		id uuid.UUID,
		status domain.ProcessingStatus,
		progress int,
		errMsg string,
	) error

	// WithTx returns a new DocumentStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) DocumentStore
}
