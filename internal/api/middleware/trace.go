package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/ensemble-api/internal/api/shared"
	"github.com/phrazzld/ensemble-api/internal/platform/logger"
)

// TraceMiddleware adds a trace ID and a request-scoped logger to the request
// context and echoes the ID in the X-Trace-ID response header. An incoming
// X-Trace-ID of valid length is reused.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(shared.TraceIDHeader)
		if len(traceID) < 8 || len(traceID) > 64 {
			traceID = shared.NewTraceID()
		}

		log := logger.FromContext(r.Context()).With(slog.String("trace_id", traceID))
		ctx := logger.WithLogger(shared.WithTraceID(r.Context(), traceID), log)

		w.Header().Set(shared.TraceIDHeader, traceID)
		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
