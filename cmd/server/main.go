// Package main implements the entry point for the batch generation server,
// which runs document batches through the throttled Gemini pipeline and
// stores their reports in Postgres.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/phrazzld/scry-batch/internal/config"
	"github.com/phrazzld/scry-batch/internal/platform/logger"
	"github.com/phrazzld/scry-batch/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Run database migrations (up, down, status, version) and exit")
	configFile := flag.String("config", "", "Path to a config file (default: ./config.yaml if present)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, *migrateCmd); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// run loads configuration and either executes a migration command or
// serves HTTP until ctx is cancelled.
func run(ctx context.Context, configFile, migrateCmd string) error {
	cfg, err := loadConfig(configFile, migrateCmd)
	if err != nil {
		return err
	}

	lg, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	lg.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"model", cfg.LLM.ModelName)

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	lg.Info("Database connection established")

	if migrateCmd != "" {
		defer closeDB(db, lg)
		return postgres.Migrate(ctx, db, migrateCmd, lg)
	}

	app, err := newApplication(ctx, cfg, lg, db)
	if err != nil {
		closeDB(db, lg)
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// loadConfig loads every section for serving; migrations only need the
// server and database sections.
func loadConfig(path, migrateCmd string) (*config.Config, error) {
	var sections []string
	if migrateCmd != "" {
		sections = []string{"server", "database"}
	}

	cfg, err := config.LoadFile(path, sections...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func closeDB(db *sql.DB, lg *slog.Logger) {
	if err := db.Close(); err != nil {
		lg.Error("Error closing database connection", "error", err)
	}
}
