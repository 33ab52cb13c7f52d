package redact_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/redact"
	"github.com/stretchr/testify/assert"
)

func TestRedactString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "database connection string",
			input:    "failed to connect: postgres://app:supersecret@db/app",
			expected: "failed to connect: [REDACTED_CREDENTIAL]db/app",
		},
		{
			name:     "api key assignment",
			input:    "generator init failed: api_key=AIzaSyD4x8val1dK3yF0rTe5t1nGxyz",
			expected: "generator init failed: [REDACTED_KEY]",
		},
		{
			name:     "storage secret key",
			input:    "storage auth rejected: secret_key=wJalrXUtnFEMIxK7MDENGbPxRfiCY",
			expected: "storage auth rejected: [REDACTED_CREDENTIAL]",
		},
		{
			name:     "object storage path",
			input:    "download failed for /documents/3f2a/lecture-notes.pdf",
			expected: "download failed for [REDACTED_PATH]",
		},
		{
			name:     "sql fragment",
			input:    "query error: SELECT id, raw_text FROM documents WHERE id = 'abc'",
			expected: "query error: [REDACTED_SQL]",
		},
		{
			name:     "service endpoint",
			input:    "extraction service unreachable: extractor.internal.example.com:8000",
			expected: "extraction service unreachable: [REDACTED_HOST]",
		},
		{
			name:     "plain message untouched",
			input:    "document has no sections",
			expected: "document has no sections",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, redact.String(tc.input))
		})
	}
}

func TestRedactError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Equal(t, "", redact.Error(nil))
	})

	t.Run("wrapped credential error", func(t *testing.T) {
		inner := errors.New("dial failed: password=hunter22 for primary")
		wrapped := fmt.Errorf("store unavailable: %w", inner)

		got := redact.Error(wrapped)
		assert.NotContains(t, got, "hunter22")
		assert.Contains(t, got, "[REDACTED_CREDENTIAL]")
		assert.Contains(t, got, "store unavailable")
	})

	t.Run("stack trace from recovered panic", func(t *testing.T) {
		input := "stage panicked: panic: runtime error: index out of range\n" +
			"goroutine 42 [running]:\n" +
			"\tmain.run(0x0)\n" +
			"\t/build/server/main.go:52 +0x1a"

		got := redact.String(input)
		assert.NotContains(t, got, "goroutine 42")
		assert.Contains(t, got, "stage panicked")
	})
}
