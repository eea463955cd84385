package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/ensemble-api/internal/config"
	"github.com/phrazzld/ensemble-api/internal/redact"
	"github.com/phrazzld/ensemble-api/internal/store"
)

// DriverName is the database/sql driver used for every pool.
const DriverName = "pgx"

// ErrAlreadyConnected is returned by a second Connect.
var ErrAlreadyConnected = errors.New("datastore already connected")

// Opener opens a pool for a connection URL. It must not contact the server.
type Opener func(driverName, dsn string) (*sqlx.DB, error)

// Migrator applies pending migrations to a freshly connected pool.
type Migrator func(ctx context.Context, db *sql.DB) error

// PoolObserver is notified of every connected pool, e.g. to export metrics.
type PoolObserver func(name string, db *sql.DB) error

// Option customizes a Datastore.
type Option func(*Datastore)

// WithOpener replaces sqlx.Open, which tests use to inject sqlmock pools.
func WithOpener(open Opener) Option {
	return func(d *Datastore) { d.open = open }
}

// WithMigrator replaces the embedded goose migrations.
func WithMigrator(migrate Migrator) Option {
	return func(d *Datastore) { d.migrate = migrate }
}

// WithPoolObserver registers an observer for connected pools.
func WithPoolObserver(observe PoolObserver) Option {
	return func(d *Datastore) { d.observe = observe }
}

// Datastore owns one pool per named database.
type Datastore struct {
	open    Opener
	migrate Migrator
	observe PoolObserver
	log     *slog.Logger

	mu      sync.RWMutex
	pools   map[string]*sqlx.DB
	verbose bool
}

// NewDatastore creates an unconnected Datastore.
func NewDatastore(log *slog.Logger, opts ...Option) *Datastore {
	if log == nil {
		log = slog.Default()
	}
	d := &Datastore{
		open: sqlx.Open,
		log:  log.With(slog.String("component", "datastore")),
	}
	d.migrate = func(ctx context.Context, db *sql.DB) error {
		_, err := MigrateUp(ctx, db, d.log)
		return err
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Connect opens and pings a pool for every database, migrating the ones
// that ask for it. It honours ctx's deadline. Any failure closes the pools
// opened so far and leaves the Datastore unconnected. When verbose is set
// every SQL statement is logged.
func (d *Datastore) Connect(ctx context.Context, databases map[string]config.DatabaseConfig, verbose bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pools != nil {
		return ErrAlreadyConnected
	}

	names := make([]string, 0, len(databases))
	for name := range databases {
		names = append(names, name)
	}
	sort.Strings(names)

	pools := make(map[string]*sqlx.DB, len(names))
	for _, name := range names {
		db, err := d.connectOne(ctx, name, databases[name])
		if err != nil {
			closeAll(pools)
			return fmt.Errorf("database %q: %w", name, err)
		}
		pools[name] = db
	}

	d.pools = pools
	d.verbose = verbose
	d.log.Info("datastore connected", slog.Int("databases", len(pools)))
	return nil
}

func (d *Datastore) connectOne(ctx context.Context, name string, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	log := d.log.With(slog.String("database", name))
	start := time.Now()

	db, err := d.open(DriverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %s", redact.Error(err))
	}

	// Zero leaves the database/sql default in place; a zero idle limit
	// would close every connection as soon as it is released.
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping: %w", MapError(err))
	}

	if cfg.AutoMigrate {
		if err := d.migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	if d.observe != nil {
		if err := d.observe(name, db.DB); err != nil {
			log.Warn("pool observer failed", slog.String("error", err.Error()))
		}
	}

	log.Info("database connection established",
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		slog.Bool("migrated", cfg.AutoMigrate))
	return db, nil
}

// DB returns the pool for a named database.
func (d *Datastore) DB(name string) (*sqlx.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.pools == nil {
		return nil, store.ErrNotConnected
	}
	db, ok := d.pools[name]
	if !ok {
		return nil, fmt.Errorf("%w: no database named %q", store.ErrNotConnected, name)
	}
	return db, nil
}

// Connected reports whether Connect has succeeded.
func (d *Datastore) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pools != nil
}

// Ping checks every pool. It is used by the health endpoint.
func (d *Datastore) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.pools == nil {
		return store.ErrNotConnected
	}
	for name, db := range d.pools {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database %q: %w", name, MapError(err))
		}
	}
	return nil
}

// Verbose reports whether statements should be logged.
func (d *Datastore) Verbose() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.verbose
}

// Close closes every pool. The Datastore cannot be reconnected afterwards
// without a new Connect.
func (d *Datastore) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := closeAll(d.pools)
	d.pools = nil
	return err
}

func closeAll(pools map[string]*sqlx.DB) error {
	var errs []error
	for name, db := range pools {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
