package shared

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const traceIDKey contextKey = iota

// SetTraceID stamps the context with a fresh trace ID. Applied once per
// request by the trace middleware so logs and error responses correlate.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, traceIDKey, uuid.NewString())
}

// GetTraceID returns the trace ID carried by ctx, or "" when none was set.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(traceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}
