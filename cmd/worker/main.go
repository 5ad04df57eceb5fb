package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/finconsol/internal/app"
	jobmetrics "github.com/odyssey-erp/finconsol/internal/jobs"
	"github.com/odyssey-erp/finconsol/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
	if cfg.RedisAddr == "" {
		slog.Default().Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	// The worker resolves uploads itself, so it never enqueues.
	cfg.QueueUpload = false
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

	metrics := jobmetrics.NewMetrics(nil)
	svc, err := app.NewServices(ctx, cfg, backends, logger, metrics)
	if err != nil {
		logger.Error("wire services", slog.Any("error", err))
		os.Exit(1)
	}

	validateJob := jobs.NewIngestValidateJob(svc.Processor, logger, metrics)
	warmupJob := jobs.NewDashboardWarmupJob(svc.Analytics, svc.Ledger.DefaultExpanded(), logger, metrics)

	warmupTask, err := jobs.NewDashboardWarmupTask(jobs.DashboardWarmupPayload{Refresh: true})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts, err := cfg.QueueRedis()
	if err != nil {
		logger.Error("queue redis", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskIngestValidate, Handler: validateJob.Handle},
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
