package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/PranavYehale/FCTC-TOOL/internal/config"
	"github.com/PranavYehale/FCTC-TOOL/internal/core"
	"github.com/PranavYehale/FCTC-TOOL/internal/history"
	"github.com/PranavYehale/FCTC-TOOL/internal/logging"
	"github.com/PranavYehale/FCTC-TOOL/internal/web"
	"github.com/PranavYehale/FCTC-TOOL/internal/workbook"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg)

	schemas := core.DefaultSchemas()
	if cfg.Reconcile.SchemaFile != "" {
		schemas, err = core.LoadSchemaFile(cfg.Reconcile.SchemaFile)
		if err != nil {
			slog.Error("failed to load schema file", "path", cfg.Reconcile.SchemaFile, "error", err)
			os.Exit(1)
		}
		slog.Info("schema file loaded", "path", cfg.Reconcile.SchemaFile)
	}

	ctx := context.Background()

	var runs core.RunStore
	if cfg.Database.Enabled() {
		pool, err := connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store := history.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate run history", "error", err)
			os.Exit(1)
		}
		runs = store
		slog.Info("run history stored in database")
	} else {
		slog.Info("no DATABASE_URL set, run history kept in memory")
	}

	service := core.NewService(
		core.NewEngine(schemas, slog.Default()),
		workbook.NewReader(cfg.Upload.MaxFileSize),
		workbook.NewWriter(),
		runs,
		core.ServiceConfig{
			OutputDir: cfg.Output.Dir,
			Limits: core.UploadLimits{
				MaxFileSize:       cfg.Upload.MaxFileSize,
				AllowedExtensions: cfg.Upload.AllowedExtensions,
			},
			ValidYears:    cfg.Reconcile.ValidYears,
			MaxConcurrent: cfg.Upload.MaxConcurrent,
			MaxWait:       cfg.Upload.MaxWaitTime,
			Timeout:       cfg.Upload.Timeout,
		},
	)

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRetentionSweeper(jobCtx, core.RetentionConfig{
		MaxAge:        cfg.Output.Retention,
		CheckInterval: cfg.Output.SweepInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for reconciliations to complete", "active", status.Active)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("reconciliations did not complete in time", "error", err)
			} else {
				slog.Info("all reconciliations completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// connect opens and pings the history database pool.
func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to database", "database", poolConfig.ConnConfig.Database)
	return pool, nil
}
