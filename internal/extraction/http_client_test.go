package extraction

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/config"
)

func newTestExtractor(url string) *HTTPExtractor {
	return NewHTTPExtractor(config.ExtractionConfig{URL: url, TimeoutSeconds: 5}, nil)
}

func TestExtractTextPlainTextPassthrough(t *testing.T) {
	t.Parallel()

	// No server configured on purpose: plain text must never hit the network.
	extractor := newTestExtractor("")

	for _, mimeType := range []string{"text/plain", "text/markdown"} {
		text, err := extractor.ExtractText(context.Background(), []byte("# Notes\n\nBody."), mimeType)
		require.NoError(t, err, mimeType)
		assert.Equal(t, "# Notes\n\nBody.", text)
	}
}

func TestExtractTextEmptyDocument(t *testing.T) {
	t.Parallel()

	extractor := newTestExtractor("")

	_, err := extractor.ExtractText(context.Background(), nil, "text/plain")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExtractTextUnsupportedType(t *testing.T) {
	t.Parallel()

	extractor := newTestExtractor("")

	_, err := extractor.ExtractText(context.Background(), []byte("data"), "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractTextNoEndpointConfigured(t *testing.T) {
	t.Parallel()

	extractor := newTestExtractor("")

	_, err := extractor.ExtractText(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestExtractTextCallsService(t *testing.T) {
	t.Parallel()

	var (
		gotMethod      string
		gotContentType string
		gotBody        []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte("Extracted page one.\n\nExtracted page two."))
	}))
	defer server.Close()

	extractor := newTestExtractor(server.URL)

	text, err := extractor.ExtractText(context.Background(), []byte("%PDF-1.4 raw"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "application/pdf", gotContentType)
	assert.Equal(t, []byte("%PDF-1.4 raw"), gotBody)
	assert.Equal(t, "Extracted page one.\n\nExtracted page two.", text)
}

func TestExtractTextServiceStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{name: "unprocessable maps to unsupported type", statusCode: http.StatusUnprocessableEntity, wantErr: ErrUnsupportedType},
		{name: "server error maps to unavailable", statusCode: http.StatusBadGateway, wantErr: ErrServiceUnavailable},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.statusCode)
			}))
			defer server.Close()

			extractor := newTestExtractor(server.URL)

			_, err := extractor.ExtractText(context.Background(), []byte("doc"), "application/pdf")
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("other non-200 is a plain error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		extractor := newTestExtractor(server.URL)

		_, err := extractor.ExtractText(context.Background(), []byte("doc"), "application/pdf")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrServiceUnavailable)
		assert.Contains(t, err.Error(), "status 403")
	})
}

func TestExtractTextServiceUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	extractor := newTestExtractor(server.URL)

	_, err := extractor.ExtractText(context.Background(), []byte("doc"), "application/pdf")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}
