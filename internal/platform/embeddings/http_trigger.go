// Package embeddings delivers section-change triggers to the sibling
// embedding-generation service over HTTP.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/config"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/pipeline"
)

// HTTPTrigger implements pipeline.EmbeddingTrigger against an HTTP endpoint.
type HTTPTrigger struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

var _ pipeline.EmbeddingTrigger = (*HTTPTrigger)(nil)

// NewHTTPTrigger creates an HTTP embedding trigger from configuration.
// Returns nil when no URL is configured, which callers treat as disabled.
func NewHTTPTrigger(cfg config.EmbeddingsConfig, logger *slog.Logger) *HTTPTrigger {
	if cfg.URL == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &HTTPTrigger{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(slog.String("component", "embedding_trigger")),
	}
}

type triggerRequest struct {
	DocumentID uuid.UUID `json:"document_id"`
	SectionIDs []string  `json:"section_ids"`
}

// TriggerEmbeddings implements pipeline.EmbeddingTrigger.
func (t *HTTPTrigger) TriggerEmbeddings(
	ctx context.Context,
	documentID uuid.UUID,
	sectionIDs []string,
) error {
	body, err := json.Marshal(triggerRequest{
		DocumentID: documentID,
		SectionIDs: sectionIDs,
	})
	if err != nil {
		return fmt.Errorf("failed to encode trigger request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding service unreachable: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	t.logger.Debug("embedding trigger delivered",
		slog.String("document_id", documentID.String()),
		slog.Int("section_count", len(sectionIDs)))
	return nil
}
