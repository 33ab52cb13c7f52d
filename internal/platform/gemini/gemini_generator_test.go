package gemini

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/config"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/generation"
)

func TestNewGeminiGeneratorValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := slog.Default()

	t.Run("requires a logger", func(t *testing.T) {
		t.Parallel()
		_, err := NewGeminiGenerator(ctx, nil, config.LLMConfig{
			GeminiAPIKey: "key",
			ModelName:    "gemini-2.0-flash",
		})
		assert.Error(t, err)
	})

	t.Run("requires an API key", func(t *testing.T) {
		t.Parallel()
		_, err := NewGeminiGenerator(ctx, logger, config.LLMConfig{
			ModelName: "gemini-2.0-flash",
		})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("requires a model name", func(t *testing.T) {
		t.Parallel()
		_, err := NewGeminiGenerator(ctx, logger, config.LLMConfig{
			GeminiAPIKey: "key",
		})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	t.Parallel()

	g, err := NewGeminiGenerator(context.Background(), slog.Default(), config.LLMConfig{
		GeminiAPIKey: "test-key",
		ModelName:    "gemini-2.0-flash",
	})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "", generation.Config{})
	assert.ErrorIs(t, err, generation.ErrEmptyPrompt)
}

func TestIsRateLimitError(t *testing.T) {
	t.Parallel()

	assert.True(t, isRateLimitError(errors.New("googleapi: Error 429: quota exceeded")))
	assert.True(t, isRateLimitError(errors.New("RESOURCE_EXHAUSTED: out of quota")))
	assert.True(t, isRateLimitError(errors.New("upstream rate limit reached")))
	assert.False(t, isRateLimitError(errors.New("connection reset by peer")))
}

func TestRetryAfterHint(t *testing.T) {
	t.Parallel()

	g := &GeminiGenerator{config: config.LLMConfig{RetryDelaySeconds: 5}}
	assert.Equal(t, 5*time.Second, g.retryAfterHint())

	g = &GeminiGenerator{config: config.LLMConfig{}}
	assert.Equal(t, 2*time.Second, g.retryAfterHint(),
		"unset delay falls back to the default hint")
}
