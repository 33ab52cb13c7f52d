package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/documents", nil)

	RespondWithJSON(w, r, http.StatusCreated, map[string]string{"id": "d1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "d1", body["id"])
}

func TestRespondWithErrorIncludesTraceID(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/documents/missing", nil)
	r = r.WithContext(SetTraceID(r.Context()))
	w := httptest.NewRecorder()

	RespondWithError(w, r, http.StatusNotFound, "document not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "document not found", resp.Error)
	assert.Equal(t, GetTraceID(r.Context()), resp.TraceID)
}

func TestRespondWithErrorAndLogHidesInternalError(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/documents", nil)
	w := httptest.NewRecorder()

	internal := errors.New("pq: connection refused host=db.internal password=hunter2")
	RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
		"internal server error", internal)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.False(t, strings.Contains(w.Body.String(), "hunter2"),
		"raw error details must never reach the client")
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/documents",
		strings.NewReader(`{"title":"Intro to Go"}`))

	var payload struct {
		Title string `json:"title"`
	}
	require.NoError(t, DecodeJSON(r, &payload))
	assert.Equal(t, "Intro to Go", payload.Title)

	bad := httptest.NewRequest(http.MethodPost, "/documents",
		strings.NewReader(`{"title":`))
	assert.Error(t, DecodeJSON(bad, &payload))
}
