package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/ensemble-api/internal/api"
	"github.com/phrazzld/ensemble-api/internal/api/middleware"
	"github.com/phrazzld/ensemble-api/internal/auth"
	"github.com/phrazzld/ensemble-api/internal/config"
	"github.com/phrazzld/ensemble-api/internal/domain"
	"github.com/phrazzld/ensemble-api/internal/lifecycle"
	"github.com/phrazzld/ensemble-api/internal/locale"
	"github.com/phrazzld/ensemble-api/internal/platform/metrics"
	"github.com/phrazzld/ensemble-api/internal/platform/postgres"
	"github.com/phrazzld/ensemble-api/internal/platform/reporting"
	"github.com/phrazzld/ensemble-api/internal/transport"
	"github.com/phrazzld/ensemble-api/internal/validation"
)

// application holds the wired dependencies and owns their cleanup.
type application struct {
	config       *config.Config
	logger       *slog.Logger
	metrics      *metrics.Metrics
	reporter     reporting.Reporter
	datastore    *postgres.Datastore
	orchestrator *lifecycle.Orchestrator
}

// newApplication wires every collaborator. Nothing touches the network here;
// the orchestrator does that when run.
func newApplication(cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  log,
		metrics: metrics.New(),
	}

	catalog, err := locale.NewCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load locale catalog: %w", err)
	}

	app.reporter, err = reporting.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fault reporting: %w", err)
	}

	protect, err := writeGuard(cfg, log)
	if err != nil {
		return nil, err
	}

	app.datastore = postgres.NewDatastore(log, postgres.WithPoolObserver(app.metrics.RegisterDB))

	var (
		datastore lifecycle.Datastore
		health    api.HealthCheck
	)
	if len(cfg.Databases) > 0 {
		datastore = app.datastore
		health = app.datastore.Ping
	}

	validator := validation.New(catalog)
	registry := api.NewRegistry(app.metrics, health)
	registry.Add(
		api.NewResource[domain.Artist]("artist", "/artists",
			postgres.NewTable[domain.Artist](app.datastore, postgres.TableSpec{
				Database: resourceDatabase(cfg),
				Name:     "artists",
				Entity:   "artist",
				Columns:  domain.ArtistColumns,
			}),
			api.ArtistSchema, validator, protect),
		api.NewResource[domain.Course]("course", "/courses",
			postgres.NewTable[domain.Course](app.datastore, postgres.TableSpec{
				Database: resourceDatabase(cfg),
				Name:     "courses",
				Entity:   "course",
				Columns:  domain.CourseColumns,
			}),
			api.CourseSchema, validator, protect),
	)

	app.orchestrator = lifecycle.New(cfg, lifecycle.Deps{
		Security:   middleware.NewSecurityLayer(cfg.Server),
		Validator:  validator,
		Datastore:  datastore,
		Routes:     registry,
		Transport:  transport.NewSelector(cfg.Server, log),
		Catalog:    catalog,
		Supervisor: lifecycle.NewSupervisor(cfg.IsDevelopment(), app.reporter, log),
		Logger:     log,
		Observer:   func(s lifecycle.State) { app.metrics.SetStage(int(s)) },
	})

	return app, nil
}

// run serves until ctx is cancelled and flushes the fault reporter.
func (app *application) run(ctx context.Context) error {
	defer app.reporter.Close()
	return app.orchestrator.Run(ctx)
}

// writeGuard returns the bearer-token middleware for write routes, or nil
// when no secret is configured.
func writeGuard(cfg *config.Config, log *slog.Logger) (func(http.Handler) http.Handler, error) {
	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwt_secret is not set, write routes are unauthenticated")
		return nil, nil
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	return middleware.NewAuthMiddleware(tokens).Authenticate, nil
}

// resourceDatabase picks the database holding the resource tables: "main"
// when configured, otherwise the first configured name.
func resourceDatabase(cfg *config.Config) string {
	if _, ok := cfg.Databases[config.DefaultDatabaseName]; ok {
		return config.DefaultDatabaseName
	}
	if names := cfg.DatabaseNames(); len(names) > 0 {
		return names[0]
	}
	return config.DefaultDatabaseName
}
