package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/config"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/generation"
)

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API.
type GeminiGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// Ensure GeminiGenerator implements generation.Generator.
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new instance of GeminiGenerator with the
// provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - config: LLM configuration containing API key, model name, and retry settings
//
// Returns:
//   - A properly initialized GeminiGenerator or an error if initialization fails
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger: logger.With("component", "gemini_generator"),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Generate implements generation.Generator. It calls the Gemini API with
// exponential backoff and jitter on transient errors, up to the configured
// retry budget (or a single attempt when cfg.NoRetry is set). Permanent
// errors (blocked content, malformed responses) and rate-limit errors are
// returned immediately without retrying.
func (g *GeminiGenerator) Generate(
	ctx context.Context,
	prompt string,
	cfg generation.Config,
) (string, error) {
	if prompt == "" {
		return "", generation.ErrEmptyPrompt
	}

	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds

	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	if cfg.NoRetry {
		maxRetries = 0
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		attemptNum := attempt + 1
		g.logger.DebugContext(ctx, "making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1,
			"prompt_length", len(prompt))

		text, err := g.callOnce(ctx, prompt, cfg)
		if err == nil {
			g.logger.DebugContext(ctx, "Gemini API call successful",
				"attempt", attemptNum,
				"response_length", len(text))
			return text, nil
		}
		lastErr = err

		// Permanent and rate-limit errors are not retried here; rate-limit
		// handling belongs to the caller, which has the retry-after hint.
		if errors.Is(err, generation.ErrContentBlocked) ||
			errors.Is(err, generation.ErrInvalidResponse) ||
			errors.Is(err, generation.ErrRateLimited) {
			g.logger.WarnContext(ctx, "non-retryable Gemini error",
				"attempt", attemptNum, "error", err)
			return "", err
		}

		if attempt >= maxRetries {
			break
		}

		// Exponential backoff with jitter:
		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		g.logger.InfoContext(ctx, "retrying Gemini call after delay",
			"attempt", attemptNum,
			"delay", delay,
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
		generation.ErrTransientFailure, maxRetries, lastErr)
}

// callOnce performs a single Gemini API invocation and maps the result to
// the generation package's error taxonomy.
func (g *GeminiGenerator) callOnce(
	ctx context.Context,
	prompt string,
	cfg generation.Config,
) (string, error) {
	genConfig := &genai.GenerateContentConfig{}
	if cfg.ResponseFormat == generation.FormatJSON {
		genConfig.ResponseMIMEType = "application/json"
	}
	if cfg.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = int32(cfg.MaxOutputTokens)
	}
	if cfg.Temperature != nil {
		genConfig.Temperature = genai.Ptr(*cfg.Temperature)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genConfig)
	if err != nil {
		if isRateLimitError(err) {
			return "", generation.NewRateLimitError(g.retryAfterHint())
		}
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}

	// Multi-part responses are concatenated into one string.
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("%w: response contained no text parts", generation.ErrInvalidResponse)
	}

	return text.String(), nil
}

// retryAfterHint derives a retry-after value for upstream 429s. The API does
// not reliably surface one, so the configured base delay is used.
func (g *GeminiGenerator) retryAfterHint() time.Duration {
	delay := g.config.RetryDelaySeconds
	if delay < 1 {
		delay = 2
	}
	return time.Duration(delay) * time.Second
}

// isRateLimitError detects quota/rate errors from the Gemini API surface.
func isRateLimitError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "rate limit")
}
