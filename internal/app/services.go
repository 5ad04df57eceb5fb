package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/consol"
	"github.com/odyssey-erp/finconsol/internal/ingest"
	"github.com/odyssey-erp/finconsol/internal/insights"
	jobmetrics "github.com/odyssey-erp/finconsol/internal/jobs"
	"github.com/odyssey-erp/finconsol/internal/platform/cache"
	"github.com/odyssey-erp/finconsol/internal/platform/db"
	"github.com/odyssey-erp/finconsol/internal/seed"
	"github.com/odyssey-erp/finconsol/internal/variance"
	"github.com/odyssey-erp/finconsol/jobs"
)

// Queue hands uploads to the background worker.
type Queue interface {
	ingest.Enqueuer
	Close() error
}

// Backends holds the optional external connections.
type Backends struct {
	Redis *redis.Client
	Pool  *pgxpool.Pool
	Queue Queue
}

// OpenBackends connects to whatever the configuration asks for.
func OpenBackends(ctx context.Context, cfg *Config) (*Backends, error) {
	b := &Backends{}
	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		b.Redis = client
	}
	if cfg.PGDSN != "" && cfg.Store == StorePostgres {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Pool = pool
	}
	if cfg.QueueUpload {
		opts, err := cfg.QueueRedis()
		if err != nil {
			b.Close()
			return nil, err
		}
		client, err := jobs.NewClient(opts)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Queue = client
	}
	return b, nil
}

// Close releases every open connection.
func (b *Backends) Close() error {
	if b == nil {
		return nil
	}
	var errs []error
	if b.Queue != nil {
		errs = append(errs, b.Queue.Close())
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
	if b.Redis != nil {
		errs = append(errs, b.Redis.Close())
	}
	return errors.Join(errs...)
}

// Services is the wired domain layer shared by the server, worker and CLI.
type Services struct {
	Dataset   *seed.Dataset
	Ledger    *consol.Service
	Variance  *variance.Service
	Analytics *analytics.Service
	States    *analytics.StateStore
	Uploads   *ingest.Registry
	Processor *ingest.Processor
	Insights  *insights.Manager
	Payloads  insights.PayloadBuilder
}

// NewServices loads the dataset and wires every service against the backends.
// A dataset that fails reconciliation stops here.
func NewServices(ctx context.Context, cfg *Config, backends *Backends, logger *slog.Logger, metrics *jobmetrics.Metrics) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if backends == nil {
		backends = &Backends{}
	}
	dataset, err := seed.Load(cfg.SeedPath)
	if err != nil {
		return nil, err
	}
	ledger, err := consol.NewService(dataset.LedgerRows(), dataset.FXTable(), dataset.Expanded, consol.ReconcileOptions{CrossFoot: dataset.CrossFoot})
	if err != nil {
		return nil, err
	}
	varianceService, err := variance.NewService(dataset.ComparisonRows(), dataset.Thresholds)
	if err != nil {
		return nil, err
	}

	var analyticsCache *analytics.Cache
	if backends.Redis != nil {
		analyticsCache = analytics.NewCache(backends.Redis, cfg.CacheTTL)
	}
	analyticsService := analytics.NewService(dataset, ledger, analyticsCache)
	expanded := dataset.Expanded
	states := analytics.NewStateStore(backends.Redis, cfg.StateTTL, func() analytics.State {
		s := analytics.DefaultState(expanded)
		s.FiscalYear = dataset.FiscalYear
		return s
	})

	store, blobs, err := uploadStorage(ctx, cfg, backends)
	if err != nil {
		return nil, err
	}
	opts := []ingest.Option{
		ingest.WithBlobs(blobs),
		ingest.WithLogger(logger),
		ingest.OnResolve(func(ctx context.Context, file ingest.MarketFile) {
			metrics.AddUploadOutcome(string(file.Market), string(file.Status))
		}),
	}
	inline := &ingest.InlineEnqueuer{}
	if backends.Queue != nil {
		opts = append(opts, ingest.WithEnqueuer(backends.Queue))
	} else {
		opts = append(opts, ingest.WithEnqueuer(inline))
	}
	registry := ingest.NewRegistry(store, opts...)
	processor := ingest.NewProcessor(registry, blobs, ingest.SheetValidator{}, logger)
	inline.Processor = processor
	if err := registry.Seed(ctx, dataset.Uploads()); err != nil {
		return nil, fmt.Errorf("app: seed uploads: %w", err)
	}

	summarizer, err := newSummarizer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Services{
		Dataset:   dataset,
		Ledger:    ledger,
		Variance:  varianceService,
		Analytics: analyticsService,
		States:    states,
		Uploads:   registry,
		Processor: processor,
		Insights:  insights.NewManager(summarizer, cfg.InsightTimeout, logger),
		Payloads: insights.PayloadBuilder{
			Period:    dataset.Period,
			Variances: varianceService,
			Macro:     analyticsService,
		},
	}, nil
}

func uploadStorage(ctx context.Context, cfg *Config, backends *Backends) (ingest.Store, ingest.Blobs, error) {
	var blobs ingest.Blobs = ingest.NewMemoryBlobs()
	if backends.Redis != nil {
		blobs = ingest.NewRedisBlobs(backends.Redis, cfg.BlobTTL)
	}
	switch cfg.Store {
	case StoreRedis:
		if backends.Redis == nil {
			return nil, nil, errors.New("app: redis store without a redis connection")
		}
		return ingest.NewRedisStore(backends.Redis), blobs, nil
	case StorePostgres:
		if backends.Pool == nil {
			return nil, nil, errors.New("app: postgres store without a database pool")
		}
		store := ingest.NewPGStore(backends.Pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return store, blobs, nil
	default:
		return ingest.NewMemoryStore(), blobs, nil
	}
}

func newSummarizer(ctx context.Context, cfg *Config) (insights.Summarizer, error) {
	if cfg.InsightMode == InsightGemini {
		return insights.NewGeminiSummarizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	return insights.NewStaticSummarizer(), nil
}

// navigationStates cancels pending insights for views the user has left.
type navigationStates struct {
	*analytics.StateStore
	insights *insights.Manager
}

func (n navigationStates) Save(ctx context.Context, session string, state analytics.State) (analytics.State, error) {
	saved, err := n.StateStore.Save(ctx, session, state)
	if err != nil {
		return saved, err
	}
	n.insights.CancelAllExcept(saved.View)
	return saved, nil
}
