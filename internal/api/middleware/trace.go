package middleware

import (
	"net/http"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/api/shared"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
)

// TraceMiddleware stamps each request with a trace ID and threads a
// trace-scoped logger through the request context, so handlers, services,
// and stores all log under the same correlation key.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		log := logger.FromContext(ctx).With("trace_id", shared.GetTraceID(ctx))
		ctx = logger.WithLogger(ctx, log)

		log.Debug("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
