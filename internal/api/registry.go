package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/ensemble-api/internal/api/envelope"
	"github.com/phrazzld/ensemble-api/internal/api/middleware"
)

// ErrAlreadyRegistered is returned by a second Register.
var ErrAlreadyRegistered = errors.New("routes already registered")

// healthTimeout bounds the health check's datastore probe.
const healthTimeout = 2 * time.Second

// HealthCheck probes a dependency for the health endpoint.
type HealthCheck func(ctx context.Context) error

// MetricsExporter is the part of the metrics registry the router needs.
type MetricsExporter interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

// Registry collects route groups and mounts them under /api.
type Registry struct {
	mu         sync.Mutex
	groups     []RouteGroup
	metrics    MetricsExporter
	health     HealthCheck
	registered bool
}

// NewRegistry creates a Registry. metrics and health are optional.
func NewRegistry(metrics MetricsExporter, health HealthCheck) *Registry {
	return &Registry{metrics: metrics, health: health}
}

// Add queues route groups for registration.
func (reg *Registry) Add(groups ...RouteGroup) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.groups = append(reg.groups, groups...)
}

// Register mounts /health, /metrics and every group under /api. It runs at
// most once; later calls return ErrAlreadyRegistered and change nothing.
// A chi panic (duplicate mount, middleware after routes) is returned as an
// error.
func (reg *Registry) Register(r chi.Router) (err error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.registered {
		return ErrAlreadyRegistered
	}
	reg.registered = true

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("failed to register routes: %v", p)
		}
	}()

	r.Use(middleware.TraceMiddleware, envelope.Guard)
	if reg.metrics != nil {
		r.Use(reg.metrics.Middleware)
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/health", reg.healthHandler)
	if reg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", reg.metrics.Handler())
	}

	// Subrouters only inherit fallbacks that exist when they are mounted.
	apiRouter := chi.NewRouter()
	apiRouter.NotFound(notFound)
	apiRouter.MethodNotAllowed(methodNotAllowed)
	for _, g := range reg.groups {
		apiRouter.Mount(g.Pattern(), g.Routes())
	}
	r.Mount("/api", apiRouter)

	return nil
}

func notFound(w http.ResponseWriter, r *http.Request) {
	_ = envelope.SendError(w, r, envelope.NotFound, nil, "Route not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = envelope.SendError(w, r, envelope.MethodNotAllowed, nil, "Method not allowed")
}

func (reg *Registry) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if reg.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := reg.health(ctx); err != nil {
			status["status"] = "unavailable"
			_ = envelope.SendError(w, r, envelope.InternalServerError, err, status)
			return
		}
		status["datastore"] = "ok"
	}

	_ = envelope.Send(w, r, status, envelope.OK, nil)
}
