package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/finconsol/internal/ingest"
	jobmetrics "github.com/odyssey-erp/finconsol/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// UploadProcessor validates and resolves a stored upload.
type UploadProcessor interface {
	Process(ctx context.Context, id string) (ingest.MarketFile, error)
}

// IngestValidateJob runs the upload validation pipeline for queued uploads.
type IngestValidateJob struct {
	Processor UploadProcessor
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewIngestValidateJob wires dependencies for the validation handler.
func NewIngestValidateJob(processor UploadProcessor, logger *slog.Logger, metrics *jobmetrics.Metrics) *IngestValidateJob {
	return &IngestValidateJob{Processor: processor, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIngestValidate tasks.
func (j *IngestValidateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Processor == nil {
		return errors.New("ingest validate: handler not configured")
	}
	var payload IngestValidatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.UploadID == "" {
		return fmt.Errorf("ingest validate: bad payload: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskIngestValidate)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("upload_id", payload.UploadID))
	start := time.Now()
	file, err := j.Processor.Process(ctx, payload.UploadID)
	if errors.Is(err, ingest.ErrNotFound) {
		logger.Warn("upload vanished before validation")
		resultErr = fmt.Errorf("ingest validate: %w: %w", err, asynq.SkipRetry)
		return resultErr
	}
	if err != nil {
		resultErr = err
		logger.Error("validate upload", slog.Any("error", err))
		return resultErr
	}
	logger.Info("validated upload",
		slog.String("status", string(file.Status)),
		slog.Int("errors", len(file.Errors)),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *IngestValidateJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskIngestValidate))
	}
	return slog.Default().With(slog.String("job", TaskIngestValidate))
}

func (j *IngestValidateJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
