// Package main implements the entry point for the ensemble API server.
//
// Without flags it runs the startup sequence and serves until SIGINT or
// SIGTERM. With -migrate it runs one goose command against a configured
// database and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/phrazzld/ensemble-api/internal/config"
	"github.com/phrazzld/ensemble-api/internal/platform/logger"
	"github.com/phrazzld/ensemble-api/internal/platform/postgres"
	"github.com/phrazzld/ensemble-api/internal/redact"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code.
func run(args []string) int {
	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	migrateCmd := flags.String("migrate", "", "run a migration command (up, down, status, version) and exit")
	database := flags.String("database", config.DefaultDatabaseName, "database the -migrate command targets")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.Setup(logger.LoggerConfig{
		Level:       cfg.Server.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logger: %v\n", err)
		return 1
	}
	time.Local = cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateCmd != "" {
		if err := runMigrations(ctx, cfg, *database, *migrateCmd, log); err != nil {
			log.Error("migration failed", slog.String("error", redact.Error(err)))
			return 1
		}
		return 0
	}

	app, err := newApplication(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", redact.Error(err)))
		return 1
	}

	if err := app.run(ctx); err != nil {
		log.Error("server exited with error", slog.String("error", redact.Error(err)))
		return 1
	}
	return 0
}

func runMigrations(ctx context.Context, cfg *config.Config, name, command string, log *slog.Logger) error {
	dbCfg, ok := cfg.Databases[name]
	if !ok {
		return fmt.Errorf("no database named %q is configured", name)
	}

	db, err := sqlx.Open(postgres.DriverName, dbCfg.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(dbCfg.ConnectTimeoutSeconds)*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to reach database: %w", postgres.MapError(err))
	}

	log.Info("running migrations",
		slog.String("database", name),
		slog.String("command", command))
	return postgres.RunMigrations(ctx, db.DB, command, log)
}
