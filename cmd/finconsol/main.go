package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/finconsol/internal/app"
	"github.com/odyssey-erp/finconsol/internal/observability"
	"github.com/odyssey-erp/finconsol/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	backends, err := app.OpenBackends(ctx, cfg)
	if err != nil {
		logger.Error("open backends", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := backends.Close(); err != nil {
			logger.Warn("close backends", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	svc, err := app.NewServices(ctx, cfg, backends, logger, metrics.Jobs())
	if err != nil {
		logger.Error("wire services", slog.Any("error", err))
		os.Exit(1)
	}
	defer svc.Insights.Wait()

	params := app.NewRouterParams(cfg, logger, svc, metrics)
	if cfg.RedisAddr != "" {
		redisOpts, err := cfg.QueueRedis()
		if err != nil {
			logger.Error("queue redis", slog.Any("error", err))
			os.Exit(1)
		}
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		params.JobHandler = jobs.NewHandler(inspector, logger)
		if warmup, ok := backends.Queue.(jobs.WarmupEnqueuer); ok {
			params.JobHandler.WithWarmup(warmup)
		} else if client, err := jobs.NewClient(redisOpts); err == nil {
			defer client.Close()
			params.JobHandler.WithWarmup(client)
		}
	} else {
		params.JobHandler = jobs.NewHandler(nil, logger)
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      app.NewRouter(params),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("store", cfg.Store),
			slog.String("insights", cfg.InsightMode),
			slog.String("period", svc.Dataset.Period))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
