package generation

import (
	"context"
)

// ResponseFormat selects the shape of generated output.
type ResponseFormat string

// Supported response formats.
const (
	// FormatPlain requests free-form text.
	FormatPlain ResponseFormat = "plain"

	// FormatJSON requests JSON-shaped output the caller will parse.
	FormatJSON ResponseFormat = "json"
)

// Config carries per-call generation settings.
type Config struct {
	// ResponseFormat selects plain text or JSON-shaped output.
	ResponseFormat ResponseFormat

	// MaxOutputTokens bounds the response length. Zero means the model default.
	MaxOutputTokens int

	// Temperature controls sampling randomness. Nil means the model default.
	Temperature *float32

	// NoRetry disables transient-failure retries for call sites that should
	// fail fast rather than wait out a backoff schedule.
	NoRetry bool
}

// Generator defines the interface for the generative text service.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
type Generator interface {
	// Generate produces text for the given prompt. Streamed responses are
	// concatenated by the implementation, so callers always receive the
	// complete output.
	//
	// Returns the generated text or an error (see errors.go for the
	// sentinel types callers can branch on).
	Generate(ctx context.Context, prompt string, cfg Config) (string, error)
}
