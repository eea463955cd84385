package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/ensemble-api/internal/api/shared"
	"github.com/phrazzld/ensemble-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	buf, log := logger.NewTestLogger()

	var traceID string
	handler := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("handled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), log))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Len(t, traceID, 32)
	assert.Equal(t, traceID, rec.Header().Get(shared.TraceIDHeader))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, traceID, entries[len(entries)-1]["trace_id"])
}

func TestTraceMiddlewareReusesIncomingID(t *testing.T) {
	var traceID string
	handler := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(shared.TraceIDHeader, "client-trace-1234")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "client-trace-1234", traceID)
}
