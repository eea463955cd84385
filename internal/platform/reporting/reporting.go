// Package reporting emits fault traces: always to the structured log, and to
// Sentry when a DSN is configured. Reporting is fire-and-forget; callers
// never depend on its outcome.
package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/phrazzld/ensemble-api/internal/config"
	"github.com/phrazzld/ensemble-api/internal/redact"
)

// Trace is one captured fault.
type Trace struct {
	Source string // where the fault was caught, e.g. "http" or "background"
	Err    error
	Stack  []byte
}

// Text renders the trace as a single diagnostic string.
func (t Trace) Text() string {
	return fmt.Sprintf("%s fault: %v\n%s", t.Source, t.Err, t.Stack)
}

// Reporter emits fault traces.
type Reporter interface {
	Report(ctx context.Context, trace Trace)
	Close()
}

// LogReporter writes traces to a structured logger. Messages are redacted
// but the stack is kept verbatim.
type LogReporter struct {
	log *slog.Logger
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(log *slog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) Report(ctx context.Context, trace Trace) {
	r.log.LogAttrs(ctx, slog.LevelError, "uncaught fault",
		slog.String("source", trace.Source),
		slog.String("error", redact.Error(trace.Err)),
		slog.String("stack", string(trace.Stack)))
}

func (r *LogReporter) Close() {}

// SentryReporter forwards traces to Sentry on its own hub.
type SentryReporter struct {
	hub          *sentry.Hub
	flushTimeout time.Duration
}

// NewSentryReporter creates a reporter with its own Sentry client. Stack
// traces are always attached.
func NewSentryReporter(opts sentry.ClientOptions) (*SentryReporter, error) {
	opts.AttachStacktrace = true
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	return &SentryReporter{
		hub:          sentry.NewHub(client, sentry.NewScope()),
		flushTimeout: 2 * time.Second,
	}, nil
}

func (r *SentryReporter) Report(ctx context.Context, trace Trace) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("source", trace.Source)
		scope.SetExtra("stack_trace", string(trace.Stack))
		scope.SetLevel(sentry.LevelFatal)
		r.hub.CaptureException(trace.Err)
	})
}

// Close flushes buffered events.
func (r *SentryReporter) Close() {
	r.hub.Flush(r.flushTimeout)
}

// Multi fans a trace out to several reporters.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, trace Trace) {
	for _, r := range m {
		r.Report(ctx, trace)
	}
}

func (m Multi) Close() {
	for _, r := range m {
		r.Close()
	}
}

// New returns the reporter for the configuration: the log reporter, plus a
// Sentry reporter when a DSN is set.
func New(cfg *config.Config, log *slog.Logger) (Reporter, error) {
	reporters := Multi{NewLogReporter(log)}
	if cfg.Reporting.SentryDSN == "" {
		return reporters, nil
	}

	sr, err := NewSentryReporter(sentry.ClientOptions{
		Dsn:         cfg.Reporting.SentryDSN,
		Environment: cfg.App.Profile,
		ServerName:  cfg.App.Name,
	})
	if err != nil {
		return nil, err
	}
	return append(reporters, sr), nil
}
