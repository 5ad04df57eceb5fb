package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/consol"
	jobmetrics "github.com/odyssey-erp/finconsol/internal/jobs"
)

// OverviewBuilder assembles the cached dashboard overview.
type OverviewBuilder interface {
	Overview(ctx context.Context, req analytics.OverviewRequest) (analytics.Overview, error)
}

// CacheInvalidator drops cached dashboard figures.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// DashboardWarmupJob pre-populates the overview cache for each currency view.
type DashboardWarmupJob struct {
	Analytics OverviewBuilder
	Expanded  []string
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(builder OverviewBuilder, expanded []string, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Analytics: builder, Expanded: expanded, Logger: logger, Metrics: metrics}
}

// Handle processes TaskDashboardWarmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("dashboard warmup: bad payload: %w", asynq.SkipRetry)
		}
	}
	currencies := []consol.Currency{consol.CurrencyHKD, consol.CurrencyLocal}
	if len(payload.Currencies) > 0 {
		currencies = currencies[:0]
		for _, raw := range payload.Currencies {
			c, err := consol.ParseCurrency(raw)
			if err != nil {
				return fmt.Errorf("dashboard warmup: %v: %w", err, asynq.SkipRetry)
			}
			currencies = append(currencies, c)
		}
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()
	if payload.Refresh {
		if inv, ok := j.Analytics.(CacheInvalidator); ok {
			if err := inv.Invalidate(ctx); err != nil {
				resultErr = fmt.Errorf("dashboard warmup: invalidate: %w", err)
				return resultErr
			}
		}
	}
	for _, currency := range currencies {
		// Per-view deadline.
		viewCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		_, err := j.Analytics.Overview(viewCtx, analytics.OverviewRequest{Currency: currency, Expanded: j.Expanded})
		cancel()
		if err != nil {
			resultErr = err
			logger.Error("warm overview", slog.String("currency", string(currency)), slog.Any("error", err))
			return resultErr
		}
	}
	logger.Info("completed dashboard warmup",
		slog.Int("views", len(currencies)),
		slog.Bool("refresh", payload.Refresh),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
