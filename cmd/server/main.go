package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/scorecharts/internal/config"
	"github.com/JonMunkholm/scorecharts/internal/history"
	"github.com/JonMunkholm/scorecharts/internal/logging"
	"github.com/JonMunkholm/scorecharts/internal/pipeline"
	"github.com/JonMunkholm/scorecharts/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment
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

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_concurrent_runs", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history_persistent", cfg.History.Persistent(),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx := context.Background()
	store, closeStore, err := openHistory(ctx, &cfg.History)
	if err != nil {
		slog.Error("failed to open run history", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	service := pipeline.NewService(pipeline.Config{
		MaxConcurrentRuns: cfg.Upload.MaxConcurrent,
		MaxWaitTime:       cfg.Upload.MaxWaitTime,
		RunTimeout:        cfg.Upload.Timeout,
		RenderWorkers:     cfg.Render.Workers,
		ChartWidth:        cfg.Render.Width,
		ChartHeight:       cfg.Render.Height,
	}, pipeline.NewMetrics(reg), store)

	server := web.NewServer(service, cfg, reg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go history.StartPurgeScheduler(jobCtx, store, history.RetentionConfig{
		RetentionDays: cfg.History.RetentionDays,
		CheckInterval: cfg.History.CheckInterval,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		limiter := service.Limiter()
		if active := limiter.ActiveCount(); active > 0 {
			slog.Info("waiting for runs to complete", "active", active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("runs did not complete in time", "error", err)
			} else {
				slog.Info("all runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openHistory returns the Postgres history when a database is configured
// and the in-memory one otherwise.
func openHistory(ctx context.Context, cfg *config.HistoryConfig) (history.Store, func(), error) {
	if !cfg.Persistent() {
		slog.Info("run history kept in memory", "max_entries", cfg.MaxEntries)
		return history.NewMemoryStore(cfg.MaxEntries), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	store := history.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	slog.Info("connected to history database", "database", poolConfig.ConnConfig.Database)
	return store, pool.Close, nil
}
