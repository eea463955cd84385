package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// MigrationsFS returns the embedded migration files.
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return sub
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	log *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

// Fatalf logs at error level; it does not exit, callers receive the error.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...))
}

// NewMigrator creates a goose provider over the embedded migrations.
func NewMigrator(db *sql.DB, log *slog.Logger) (*goose.Provider, error) {
	if log == nil {
		log = slog.Default()
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, MigrationsFS(),
		goose.WithLogger(&slogGooseLogger{log: log.With(slog.String("component", "migrations"))}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// MigrateUp applies every pending migration and returns how many ran.
func MigrateUp(ctx context.Context, db *sql.DB, log *slog.Logger) (int, error) {
	provider, err := NewMigrator(db, log)
	if err != nil {
		return 0, err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("failed to apply migrations: %w", err)
	}
	return len(results), nil
}

// RunMigrations executes a migration command (up, down, status, version)
// and logs the outcome.
func RunMigrations(ctx context.Context, db *sql.DB, command string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	provider, err := NewMigrator(db, log)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		log.Info("migrations applied", slog.Int("count", len(results)))
	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		log.Info("migration rolled back", slog.Int64("version", result.Source.Version))
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		for _, s := range statuses {
			log.Info("migration status",
				slog.Int64("version", s.Source.Version),
				slog.String("state", string(s.State)),
				slog.Time("applied_at", s.AppliedAt))
		}
	case "version":
		version, err := provider.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		log.Info("current migration version", slog.Int64("version", version))
	default:
		return fmt.Errorf("unknown migration command: %s (expected up, down, status, or version)", command)
	}
	return nil
}
