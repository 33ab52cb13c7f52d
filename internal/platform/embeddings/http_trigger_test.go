package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/config"
)

func TestNewHTTPTriggerDisabledWithoutURL(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewHTTPTrigger(config.EmbeddingsConfig{}, nil))
}

func TestTriggerEmbeddingsPostsRequest(t *testing.T) {
	t.Parallel()

	var (
		gotMethod      string
		gotContentType string
		gotRequest     triggerRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	trigger := NewHTTPTrigger(config.EmbeddingsConfig{URL: server.URL, TimeoutSeconds: 5}, nil)
	require.NotNil(t, trigger)

	docID := uuid.New()
	sectionIDs := []string{"3f2a1b4c-sec-1", "3f2a1b4c-sec-2"}

	err := trigger.TriggerEmbeddings(context.Background(), docID, sectionIDs)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, docID, gotRequest.DocumentID)
	assert.Equal(t, sectionIDs, gotRequest.SectionIDs)
}

func TestTriggerEmbeddingsRejectedByService(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	trigger := NewHTTPTrigger(config.EmbeddingsConfig{URL: server.URL}, nil)
	require.NotNil(t, trigger)

	err := trigger.TriggerEmbeddings(context.Background(), uuid.New(), []string{"sec-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestTriggerEmbeddingsServiceUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	trigger := NewHTTPTrigger(config.EmbeddingsConfig{URL: server.URL}, nil)
	require.NotNil(t, trigger)

	err := trigger.TriggerEmbeddings(context.Background(), uuid.New(), []string{"sec-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
