// Package extraction provides the document-extraction service boundary:
// raw uploaded bytes plus a mime type go in, plain text comes out. The
// concrete implementation talks to a Tika-compatible HTTP service; failures
// are classified so the dispatcher can treat unavailability as retryable.
package extraction

import (
	"context"
	"errors"
)

// Common errors returned by the extraction package
var (
	// ErrUnsupportedType is returned when the mime type has no extractable text.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrServiceUnavailable is returned when the extraction service cannot be
	// reached or responds with a server error. Callers treat this as a
	// retryable job failure.
	ErrServiceUnavailable = errors.New("extraction service unavailable")

	// ErrEmptyDocument is returned when there are no bytes to extract from.
	ErrEmptyDocument = errors.New("document is empty")
)

// TextExtractor converts raw document bytes into plain text.
type TextExtractor interface {
	// ExtractText extracts plain text from data of the given mime type.
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
}
