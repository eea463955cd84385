package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	ut "github.com/go-playground/universal-translator"
	"github.com/phrazzld/ensemble-api/internal/api/envelope"
	"github.com/phrazzld/ensemble-api/internal/config"
	"github.com/phrazzld/ensemble-api/internal/locale"
	"github.com/phrazzld/ensemble-api/internal/transport"
)

// defaultConnectTimeout bounds the datastore stage when no database sets
// its own timeout.
const defaultConnectTimeout = 10 * time.Second

const defaultShutdownTimeout = 10 * time.Second

// Securer hardens the router and server before any route exists.
type Securer interface {
	Apply(r chi.Router, srv *http.Server) error
}

// LocaleBinder binds the active locale into the validation subsystem.
type LocaleBinder interface {
	Bind(locale string) error
}

// Datastore is connected before routes are registered and closed on
// shutdown.
type Datastore interface {
	Connect(ctx context.Context, databases map[string]config.DatabaseConfig, verbose bool) error
	Close() error
}

// RouteRegistrar mounts every resource route group.
type RouteRegistrar interface {
	Register(r chi.Router) error
}

// Binder binds the listener the server accepts connections on.
type Binder interface {
	Bind(ctx context.Context, srv *http.Server) (*transport.Binding, error)
}

// Observer is told about every state transition.
type Observer func(State)

// Deps are the collaborators driven by the Orchestrator. Datastore may be
// nil when no database is configured.
type Deps struct {
	Security   Securer
	Validator  LocaleBinder
	Datastore  Datastore
	Routes     RouteRegistrar
	Transport  Binder
	Catalog    *locale.Catalog
	Supervisor *Supervisor
	Logger     *slog.Logger
	Observer   Observer
}

// Orchestrator drives one server from cold start to serving. It runs once.
type Orchestrator struct {
	cfg  *config.Config
	deps Deps
	log  *slog.Logger

	started atomic.Bool
	ready   chan struct{}

	mu    sync.RWMutex
	state State
	addr  string

	router chi.Router
	server *http.Server
	trans  ut.Translator
}

// New creates an Orchestrator in the Idle state.
func New(cfg *config.Config, deps Deps) *Orchestrator {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if deps.Supervisor == nil {
		deps.Supervisor = NewSupervisor(cfg.IsDevelopment(), nil, log)
	}

	router := chi.NewRouter()
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		log:    log.With(slog.String("component", "lifecycle")),
		ready:  make(chan struct{}),
		router: router,
		server: &http.Server{
			Handler:  router,
			ErrorLog: slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		},
	}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Ready is closed once the listener is bound and the server accepts
// connections.
func (o *Orchestrator) Ready() <-chan struct{} {
	return o.ready
}

// Addr returns the bound address, or "" before Serving.
func (o *Orchestrator) Addr() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.addr
}

// Run executes the startup sequence and serves until ctx is cancelled, the
// server fails, or an escalated fault arrives. Cancelling ctx shuts the
// server down gracefully and returns nil.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	// The fault handler wraps everything registered later.
	o.router.Use(envelope.Guard, o.deps.Supervisor.Recover)

	stages := []struct {
		state State
		run   func(context.Context) error
	}{
		{SecuringTransportHeaders, o.secure},
		{ConfiguringValidation, o.configureValidation},
		{ConnectingDatastore, o.connectDatastore},
		{RegisteringRoutes, o.registerRoutes},
	}

	for _, stage := range stages {
		o.transition(stage.state)
		if err := o.runStage(ctx, stage.run); err != nil {
			return o.fail(stage.state, err)
		}
	}

	o.transition(BindingTransport)
	var binding *transport.Binding
	err := o.runStage(ctx, func(ctx context.Context) error {
		var err error
		binding, err = o.deps.Transport.Bind(ctx, o.server)
		return err
	})
	if err != nil {
		return o.fail(BindingTransport, err)
	}

	o.transition(Serving)
	return o.serve(ctx, binding)
}

// runStage runs one stage, turning a panic into an error so a broken
// collaborator fails startup instead of crashing the process.
func (o *Orchestrator) runStage(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return run(ctx)
}

func (o *Orchestrator) secure(context.Context) error {
	return o.deps.Security.Apply(o.router, o.server)
}

func (o *Orchestrator) configureValidation(context.Context) error {
	trans, err := o.deps.Catalog.Resolve(o.cfg.App.Locale)
	if err != nil {
		return err
	}
	if err := o.deps.Validator.Bind(o.cfg.App.Locale); err != nil {
		return err
	}
	o.trans = trans
	return nil
}

func (o *Orchestrator) connectDatastore(ctx context.Context) error {
	if len(o.cfg.Databases) == 0 {
		o.status(locale.Message(o.trans, locale.KeyNoDatastore))
		return nil
	}
	if o.deps.Datastore == nil {
		return errors.New("databases configured but no datastore provided")
	}

	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout(o.cfg.Databases))
	defer cancel()

	return o.deps.Datastore.Connect(ctx, o.cfg.Databases, o.cfg.IsDevelopment())
}

func (o *Orchestrator) registerRoutes(context.Context) error {
	return o.deps.Routes.Register(o.router)
}

func (o *Orchestrator) serve(ctx context.Context, binding *transport.Binding) error {
	o.mu.Lock()
	o.addr = binding.Addr
	o.mu.Unlock()

	key := locale.KeyPlainStatus
	if binding.Encrypted {
		key = locale.KeyTLSStatus
	}
	o.status(locale.Message(o.trans, key, binding.Addr))

	serveErr := make(chan error, 1)
	o.deps.Supervisor.Go(ctx, "http server", func(context.Context) {
		serveErr <- o.server.Serve(binding.Listener)
	})
	close(o.ready)

	var result error
	select {
	case <-ctx.Done():
		o.log.Info("shutting down", slog.String("reason", context.Cause(ctx).Error()))
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			result = fmt.Errorf("server stopped: %w", err)
		}
	case fault := <-o.deps.Supervisor.Faults():
		o.log.Error("escalating runtime fault", slog.String("source", fault.Source))
		result = fault
	}

	o.shutdown()
	return result
}

func (o *Orchestrator) shutdown() {
	timeout := time.Duration(o.cfg.Server.ShutdownTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := o.server.Shutdown(ctx); err != nil {
		o.log.Warn("graceful shutdown incomplete", slog.String("error", err.Error()))
		_ = o.server.Close()
	}
	o.closeDatastore()
	o.transition(Stopped)
	o.log.Info("server stopped")
}

func (o *Orchestrator) fail(stage State, err error) error {
	o.transition(Failed)
	o.closeDatastore()

	fault := &StartupFault{Stage: stage, Err: err}
	o.log.Error("startup failed",
		slog.String("stage", stage.String()),
		slog.String("error", err.Error()))
	return fault
}

func (o *Orchestrator) closeDatastore() {
	if o.deps.Datastore == nil || len(o.cfg.Databases) == 0 {
		return
	}
	if err := o.deps.Datastore.Close(); err != nil {
		o.log.Warn("failed to close datastore", slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()

	o.log.Debug("lifecycle transition",
		slog.String("from", from.String()),
		slog.String("to", to.String()))
	if o.deps.Observer != nil {
		o.deps.Observer(to)
	}
}

// status emits a human-readable status line. The test profile runs silent.
func (o *Orchestrator) status(msg string) {
	if o.cfg.IsTest() {
		return
	}
	o.log.Info(msg)
}

// ConnectTimeout returns the deadline for connecting every database: the
// longest configured per-database timeout, or 10s when none is set.
func ConnectTimeout(databases map[string]config.DatabaseConfig) time.Duration {
	longest := time.Duration(0)
	for _, db := range databases {
		if d := time.Duration(db.ConnectTimeoutSeconds) * time.Second; d > longest {
			longest = d
		}
	}
	if longest == 0 {
		return defaultConnectTimeout
	}
	return longest
}
