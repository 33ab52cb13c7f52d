package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus represents the pipeline state of a document.
type ProcessingStatus string

// Possible document processing status values.
const (
	ProcessingStatusUploading  ProcessingStatus = "uploading"
	ProcessingStatusExtracting ProcessingStatus = "extracting"
	ProcessingStatusAnalyzing  ProcessingStatus = "analyzing"
	ProcessingStatusMapping    ProcessingStatus = "mapping"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

// Document-specific validation errors
var (
	// ErrDocumentIDEmpty is returned when a document ID is empty or nil.
	ErrDocumentIDEmpty = errors.New("document ID cannot be empty")

	// ErrDocumentOwnerIDEmpty is returned when a document's owner ID is empty or nil.
	ErrDocumentOwnerIDEmpty = errors.New("document owner ID cannot be empty")

	// ErrDocumentTitleEmpty is returned when a document title is empty.
	ErrDocumentTitleEmpty = errors.New("document title cannot be empty")

	// ErrInvalidProcessingStatus is returned when a processing status is not valid.
	ErrInvalidProcessingStatus = errors.New("invalid processing status")

	// ErrInvalidProgress is returned when a progress value is outside 0-100.
	ErrInvalidProgress = errors.New("processing progress must be between 0 and 100")
)

// Document represents an uploaded curriculum artifact moving through the
// processing pipeline. RawText is nil until extraction has run; Sections are
// populated by section extraction and replaced wholesale on reprocessing.
type Document struct {
	ID                 uuid.UUID        `json:"id"`
	OwnerID            uuid.UUID        `json:"owner_id"`
	Title              string           `json:"title"`
	FilePath           string           `json:"file_path"`
	MimeType           string           `json:"mime_type"`
	RawText            *string          `json:"raw_text,omitempty"`
	Sections           []Section        `json:"sections,omitempty"`
	ProcessingStatus   ProcessingStatus `json:"processing_status"`
	ProcessingProgress int              `json:"processing_progress"`
	ProcessingError    string           `json:"processing_error,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Section is a structural unit inside a document: a titled region with a
// location hint, the concepts it covers, and a short description. Produced by
// AI extraction or, on fallback, from heading lines in the raw text.
type Section struct {
	ID          string    `json:"id"`
	DocumentID  uuid.UUID `json:"document_id"`
	Position    int       `json:"position"`
	Title       string    `json:"title"`
	Location    string    `json:"location,omitempty"`
	Concepts    []string  `json:"concepts,omitempty"`
	Description string    `json:"description,omitempty"`
}

// NewDocument creates a new Document in the uploading state with zero
// progress. Returns an error if validation fails.
func NewDocument(ownerID uuid.UUID, title, filePath, mimeType string) (*Document, error) {
	doc := &Document{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		Title:              title,
		FilePath:           filePath,
		MimeType:           mimeType,
		ProcessingStatus:   ProcessingStatusUploading,
		ProcessingProgress: 0,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

// Validate checks if the Document has valid data.
func (d *Document) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDocumentIDEmpty
	}

	if d.OwnerID == uuid.Nil {
		return ErrDocumentOwnerIDEmpty
	}

	if d.Title == "" {
		return ErrDocumentTitleEmpty
	}

	if !isValidProcessingStatus(d.ProcessingStatus) {
		return ErrInvalidProcessingStatus
	}

	if d.ProcessingProgress < 0 || d.ProcessingProgress > 100 {
		return ErrInvalidProgress
	}

	return nil
}

// IsTerminal reports whether the document's pipeline has finished, either
// successfully or with a terminal failure.
func (d *Document) IsTerminal() bool {
	return d.ProcessingStatus == ProcessingStatusCompleted ||
		d.ProcessingStatus == ProcessingStatusFailed
}

func isValidProcessingStatus(s ProcessingStatus) bool {
	switch s {
	case ProcessingStatusUploading, ProcessingStatusExtracting,
		ProcessingStatusAnalyzing, ProcessingStatusMapping,
		ProcessingStatusCompleted, ProcessingStatusFailed:
		return true
	default:
		return false
	}
}
