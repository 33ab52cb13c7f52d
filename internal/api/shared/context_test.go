package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := SetTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.NotEmpty(t, traceID)

	// Each stamped context gets its own ID.
	other := SetTraceID(context.Background())
	assert.NotEqual(t, traceID, GetTraceID(other))
}

func TestGetTraceIDWithoutOne(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GetTraceID(context.Background()))
}
