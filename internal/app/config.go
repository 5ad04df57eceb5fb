package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kelseyhightower/envconfig"
)

// Store backends for upload records.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Insight summarizer modes.
const (
	InsightStatic = "static"
	InsightGemini = "gemini"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"45s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	AppRateLimit      int           `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`

	Store       string        `envconfig:"STORE" default:"memory"`
	QueueUpload bool          `envconfig:"QUEUE_UPLOADS" default:"false"`
	StateTTL    time.Duration `envconfig:"STATE_TTL" default:"720h"`
	CacheTTL    time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	BlobTTL     time.Duration `envconfig:"BLOB_TTL" default:"24h"`

	SeedPath string `envconfig:"SEED_PATH"`

	InsightMode    string        `envconfig:"INSIGHT_MODE" default:"static"`
	InsightTimeout time.Duration `envconfig:"INSIGHT_TIMEOUT" default:"30s"`
	GeminiAPIKey   string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel    string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	WarmupCron string `envconfig:"WARMUP_CRON" default:"*/15 * * * *"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// QueueRedis converts REDIS_ADDR into asynq connection options. Both a bare
// host:port and a redis:// or rediss:// URI are accepted.
func (c *Config) QueueRedis() (asynq.RedisConnOpt, error) {
	if c.RedisAddr == "" {
		return nil, errors.New("app: REDIS_ADDR not set")
	}
	if strings.Contains(c.RedisAddr, "://") {
		opts, err := asynq.ParseRedisURI(c.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("app: parse REDIS_ADDR: %w", err)
		}
		return opts, nil
	}
	return asynq.RedisClientOpt{Addr: c.RedisAddr}, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.InsightMode = strings.ToLower(strings.TrimSpace(c.InsightMode))
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("app: STORE=redis requires REDIS_ADDR")
		}
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("app: STORE=postgres requires PG_DSN")
		}
	default:
		return fmt.Errorf("app: unknown STORE %q", c.Store)
	}
	switch c.InsightMode {
	case InsightStatic:
	case InsightGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("app: INSIGHT_MODE=gemini requires GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("app: unknown INSIGHT_MODE %q", c.InsightMode)
	}
	if c.QueueUpload && c.RedisAddr == "" {
		return fmt.Errorf("app: QUEUE_UPLOADS requires REDIS_ADDR")
	}
	if c.QueueUpload && c.Store == StoreMemory {
		return fmt.Errorf("app: QUEUE_UPLOADS needs a shared STORE")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
