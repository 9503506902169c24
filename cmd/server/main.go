package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/unitconv/internal/catalog"
	"github.com/JonMunkholm/unitconv/internal/config"
	"github.com/JonMunkholm/unitconv/internal/core"
	"github.com/JonMunkholm/unitconv/internal/logging"
	"github.com/JonMunkholm/unitconv/internal/web"
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

	slog.Info("configuration loaded", "config", cfg.String())

	// A catalog that cannot be loaded is fatal; nothing can be converted.
	cat, err := catalog.Load(catalog.SourceFor(cfg.Catalog.Path))
	if err != nil {
		slog.Error("failed to load unit catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("unit catalog loaded",
		"source", cat.Source(),
		"categories", cat.Len(),
	)

	ctx := context.Background()

	history, closeHistory, err := openHistory(ctx, cfg)
	if err != nil {
		slog.Error("failed to open history store", "error", err)
		os.Exit(1)
	}
	defer closeHistory()

	service, err := core.NewService(cat, history, core.Options{
		MaxBatchItems:        cfg.Batch.MaxItems,
		MaxConcurrentBatches: cfg.Batch.MaxConcurrent,
		BatchWaitTime:        cfg.Batch.MaxWaitTime,
		BatchWorkers:         cfg.Batch.Workers,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	if history != nil {
		go service.StartHistoryPurger(jobCtx, core.PurgeConfig{
			Retention: cfg.History.Retention,
			Interval:  cfg.History.PurgeInterval,
		})
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.BatchStatus(); status.Active > 0 {
			slog.Info("waiting for batches to complete", "active", status.Active)
			if err := service.WaitForBatches(shutdownCtx); err != nil {
				slog.Warn("batches did not complete in time", "error", err)
			} else {
				slog.Info("all batches completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		cancelJobs()
		closeHistory()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// openHistory picks the history store: none when disabled, PostgreSQL when
// DATABASE_URL is set, otherwise an in-memory ring. The returned close
// function is always safe to call.
func openHistory(ctx context.Context, cfg *config.Config) (core.HistoryStore, func(), error) {
	noop := func() {}

	if !cfg.History.Enabled {
		slog.Info("conversion history disabled")
		return nil, noop, nil
	}

	if !cfg.Database.Enabled() {
		slog.Info("conversion history in memory", "capacity", cfg.History.MemoryCapacity)
		return core.NewMemoryHistory(cfg.History.MemoryCapacity), noop, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, noop, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, noop, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, noop, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store := core.NewPgHistory(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, noop, err
	}

	return store, pool.Close, nil
}
