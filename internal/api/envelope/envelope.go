// Package envelope shapes every API response as {status, data, meta?}.
//
// Exactly one Send is allowed per request. Routes must be wrapped with Guard
// so that a second Send can be detected; it then returns ErrAlreadySent and
// writes nothing.
package envelope

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/ensemble-api/internal/platform/logger"
	"github.com/phrazzld/ensemble-api/internal/redact"
)

// ErrAlreadySent is returned when a response has already been written.
var ErrAlreadySent = errors.New("response already sent")

// Body is the wire shape of every response.
type Body struct {
	Status int `json:"status"`
	Data   any `json:"data"`
	Meta   any `json:"meta,omitempty"`
}

// Guard wraps the response writer so Send can tell whether a response has
// already been written for the request.
func Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(middleware.WrapResponseWriter); !ok {
			w = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}
		next.ServeHTTP(w, r)
	})
}

// Sent reports whether a status has already been written to w. It can only
// tell when w was wrapped by Guard (or another chi wrapper).
func Sent(w http.ResponseWriter) bool {
	ww, ok := w.(middleware.WrapResponseWriter)
	return ok && ww.Status() != 0
}

// Send writes payload under "data", attaches meta when non-nil, and sets the
// transport status. A second call for the same request is a programming
// error: it is logged and ErrAlreadySent is returned.
func Send(w http.ResponseWriter, r *http.Request, payload any, status Status, meta any) error {
	log := logger.FromContext(r.Context())

	if Sent(w) {
		log.Error("response sent twice",
			slog.String("path", r.URL.Path),
			slog.String("method", r.Method),
			slog.String("status", status.Name()))
		return ErrAlreadySent
	}

	if status.Code() == 0 {
		log.Error("response sent without a status", slog.String("path", r.URL.Path))
		status = status.orInternal()
	}

	raw, err := json.Marshal(Body{Status: status.Code(), Data: payload, Meta: meta})
	if err != nil {
		log.Error("failed to encode response",
			slog.String("path", r.URL.Path),
			slog.String("error", redact.Error(err)))
		status = InternalServerError
		raw, _ = json.Marshal(Body{Status: status.Code(), Data: "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status.Code())
	if _, err := w.Write(append(raw, '\n')); err != nil {
		log.Debug("failed to write response", slog.String("error", err.Error()))
	}
	return nil
}

// SendError logs err and sends it with status. Server errors carry the
// redacted diagnostic text; client errors carry data unless it is nil, in
// which case the error text is sent.
//
// Server errors are logged at ERROR level, client errors at DEBUG.
func SendError(w http.ResponseWriter, r *http.Request, status Status, err error, data any) error {
	log := logger.FromContext(r.Context())
	status = status.orInternal()

	attrs := []slog.Attr{
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status.Code()),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", redact.Error(err)))
	}

	level := slog.LevelDebug
	if status.Code() >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.LogAttrs(r.Context(), level, "API error response", attrs...)

	if data == nil {
		switch {
		case err == nil:
			data = http.StatusText(status.Code())
		default:
			data = redact.Error(err)
		}
	}
	return Send(w, r, data, status, nil)
}
