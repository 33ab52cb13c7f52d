package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/config"
)

// mime types the extraction service understands. Plain text passes through
// without a remote call.
var extractableTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword": true,
	"text/html":          true,
}

// HTTPExtractor implements TextExtractor against a Tika-compatible extraction
// endpoint: the document bytes are PUT with their content type, and the
// response body is the extracted plain text.
type HTTPExtractor struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// Ensure HTTPExtractor implements TextExtractor.
var _ TextExtractor = (*HTTPExtractor)(nil)

// NewHTTPExtractor creates a new HTTPExtractor from extraction configuration.
func NewHTTPExtractor(cfg config.ExtractionConfig, logger *slog.Logger) *HTTPExtractor {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPExtractor{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "text_extractor"),
	}
}

// ExtractText implements TextExtractor.ExtractText.
func (e *HTTPExtractor) ExtractText(
	ctx context.Context,
	data []byte,
	mimeType string,
) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	// Plain text and markdown need no extraction service round trip.
	if mimeType == "text/plain" || mimeType == "text/markdown" {
		return string(data), nil
	}

	if !extractableTypes[mimeType] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	if e.url == "" {
		return "", fmt.Errorf("%w: no extraction endpoint configured", ErrServiceUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Accept", "text/plain")

	e.logger.Debug("calling extraction service",
		"mime_type", mimeType,
		"bytes", len(data))

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			e.logger.Warn("failed to close extraction response body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read extraction response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}

	return string(body), nil
}
