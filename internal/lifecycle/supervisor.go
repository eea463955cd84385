package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/phrazzld/ensemble-api/internal/api/envelope"
	"github.com/phrazzld/ensemble-api/internal/platform/reporting"
)

// Supervisor catches panics from request handlers and background work and
// applies the fault policy: escalate when escalation is enabled (the
// development profile), otherwise report and carry on.
type Supervisor struct {
	escalate bool
	reporter reporting.Reporter
	log      *slog.Logger

	faults chan *RuntimeFault
	wg     sync.WaitGroup
}

// NewSupervisor creates a Supervisor. A nil reporter logs traces to log.
func NewSupervisor(escalate bool, reporter reporting.Reporter, log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	if reporter == nil {
		reporter = reporting.NewLogReporter(log)
	}
	return &Supervisor{
		escalate: escalate,
		reporter: reporter,
		log:      log.With(slog.String("component", "supervisor")),
		faults:   make(chan *RuntimeFault, 1),
	}
}

// Faults delivers escalated faults. Only the first undelivered fault is
// kept; the server is going down by then.
func (s *Supervisor) Faults() <-chan *RuntimeFault {
	return s.faults
}

// Recover is HTTP middleware that turns a handler panic into a fault and an
// INTERNAL_SERVER_ERROR envelope, unless a response was already sent.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func (s *Supervisor) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(p)
			}

			fault := s.handle(r.Context(), "http "+r.Method+" "+r.URL.Path, p, debug.Stack())
			if !envelope.Sent(w) {
				_ = envelope.SendError(w, r, envelope.InternalServerError, fault, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Go runs fn in a supervised goroutine. A panic in fn is handled like a
// handler panic.
func (s *Supervisor) Go(ctx context.Context, source string, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				s.handle(ctx, source, p, debug.Stack())
			}
		}()
		fn(ctx)
	}()
}

// Wait blocks until every goroutine started with Go has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) handle(ctx context.Context, source string, p any, stack []byte) *RuntimeFault {
	fault := &RuntimeFault{Source: source, Value: p, Stack: stack}
	s.reporter.Report(ctx, reporting.Trace{Source: source, Err: fault, Stack: stack})

	if s.escalate {
		select {
		case s.faults <- fault:
		default:
		}
		return fault
	}

	s.log.Warn("fault contained, continuing to serve", slog.String("source", source))
	return fault
}
