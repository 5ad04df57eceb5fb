package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analytichttp "github.com/odyssey-erp/finconsol/internal/analytics/http"
	consolhttp "github.com/odyssey-erp/finconsol/internal/consol/http"
	ingesthttp "github.com/odyssey-erp/finconsol/internal/ingest/http"
	insightshttp "github.com/odyssey-erp/finconsol/internal/insights/http"
	"github.com/odyssey-erp/finconsol/internal/observability"
	variancehttp "github.com/odyssey-erp/finconsol/internal/variance/http"
	"github.com/odyssey-erp/finconsol/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	ConsolHandler    *consolhttp.Handler
	VarianceHandler  *variancehttp.Handler
	AnalyticsHandler *analytichttp.Handler
	UploadHandler    *ingesthttp.Handler
	InsightsHandler  *insightshttp.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouterParams builds every API handler over the wired services.
func NewRouterParams(cfg *Config, logger *slog.Logger, svc *Services, metrics *observability.Metrics) RouterParams {
	if logger == nil {
		logger = slog.Default()
	}
	states := navigationStates{StateStore: svc.States, insights: svc.Insights}
	ledger := consolhttp.NewHandler(logger, svc.Ledger, states, svc.Dataset.FXTable())
	if metrics != nil {
		lm, err := consolhttp.NewLedgerMetrics(metrics.Registerer())
		if err != nil {
			logger.Warn("ledger metrics", slog.Any("error", err))
		}
		ledger.WithMetrics(lm)
	}
	return RouterParams{
		Logger:           logger,
		Config:           cfg,
		ConsolHandler:    ledger,
		VarianceHandler:  variancehttp.NewHandler(logger, svc.Variance),
		AnalyticsHandler: analytichttp.NewHandler(logger, svc.Analytics, states),
		UploadHandler:    ingesthttp.NewHandler(logger, svc.Uploads),
		InsightsHandler:  insightshttp.NewHandler(logger, svc.Insights, svc.Payloads),
		Metrics:          metrics,
	}
}

// NewRouter constructs the chi.Router with finconsol defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if params.ConsolHandler != nil {
			params.ConsolHandler.MountRoutes(r)
		}
		if params.VarianceHandler != nil {
			params.VarianceHandler.MountRoutes(r)
		}
		if params.AnalyticsHandler != nil {
			params.AnalyticsHandler.MountRoutes(r)
		}
		if params.UploadHandler != nil {
			params.UploadHandler.MountRoutes(r)
		}
		if params.InsightsHandler != nil {
			params.InsightsHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
