package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-batch/internal/config"
	"github.com/phrazzld/scry-batch/internal/generation"
	"github.com/phrazzld/scry-batch/internal/pipeline"
	"github.com/phrazzld/scry-batch/internal/platform/clock"
	"github.com/phrazzld/scry-batch/internal/platform/gemini"
	"github.com/phrazzld/scry-batch/internal/platform/postgres"
	"github.com/phrazzld/scry-batch/internal/service"
	"github.com/phrazzld/scry-batch/internal/service/auth"
	"github.com/phrazzld/scry-batch/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	batchStore store.BatchStore

	jwtService   auth.JWTService
	generator    generation.Generator
	batchService service.BatchService
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	gen, err := gemini.NewGenerator(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized", "model", cfg.LLM.ModelName)

	return assemble(cfg, logger, db, gen)
}

// assemble wires the application around an already constructed generator.
func assemble(cfg *config.Config, logger *slog.Logger, db *sql.DB, gen generation.Generator) (*application, error) {
	app := &application{
		config:    cfg,
		logger:    logger,
		db:        db,
		generator: gen,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.batchStore = postgres.NewPostgresBatchStore(db, logger)

	processor := pipeline.New(cfg.Pipeline, clock.Real{}, logger)
	logger.Info("Batch pipeline configured",
		"max_calls_per_window", cfg.Pipeline.MaxCallsPerWindow,
		"window_seconds", cfg.Pipeline.WindowSeconds,
		"min_spacing_seconds", cfg.Pipeline.MinSpacingSeconds,
		"max_attempts", cfg.Pipeline.MaxAttempts,
		"max_items_per_batch", cfg.Pipeline.MaxItemsPerBatch)

	app.batchService, err = service.NewBatchService(app.batchStore, db, processor, gen, clock.Real{}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
