package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobEvent(t *testing.T) {
	t.Parallel()

	payload := JobLifecyclePayload{
		JobID:      uuid.New(),
		DocumentID: uuid.New(),
		JobType:    "full_pipeline",
	}

	event, err := NewJobEvent(EventJobCompleted, payload)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventJobCompleted, event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded JobLifecyclePayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload.JobID, decoded.JobID)
	assert.Equal(t, payload.DocumentID, decoded.DocumentID)
	assert.Equal(t, "full_pipeline", decoded.JobType)
	assert.Empty(t, decoded.Error)
}

func TestNewJobEventFailedCarriesError(t *testing.T) {
	t.Parallel()

	payload := JobLifecyclePayload{
		JobID:      uuid.New(),
		DocumentID: uuid.New(),
		JobType:    "extract_sections",
		Error:      "document has no extractable text",
	}

	event, err := NewJobEvent(EventJobFailed, payload)
	require.NoError(t, err)

	var decoded JobLifecyclePayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "document has no extractable text", decoded.Error)
}

func TestNewJobEventUnserializablePayload(t *testing.T) {
	t.Parallel()

	_, err := NewJobEvent(EventJobCompleted, make(chan int))
	assert.Error(t, err)
}

func TestUnmarshalPayloadMalformed(t *testing.T) {
	t.Parallel()

	event := &JobEvent{Payload: []byte("{not json")}

	var decoded JobLifecyclePayload
	assert.Error(t, event.UnmarshalPayload(&decoded))
}
