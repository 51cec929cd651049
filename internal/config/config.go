package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the full daemon configuration, read from the environment.
type Config struct {
	// Store
	DatabaseDriver string `env:"DOCPIPE_DB_DRIVER,default=sqlite"`
	DatabasePath   string `env:"DOCPIPE_DB_PATH,default=jobs.db"`
	DatabaseDSN    string `env:"DOCPIPE_DB_DSN"`

	// Retry policy
	MaxRetries int `env:"DOCPIPE_MAX_RETRIES,default=3"`

	// Scheduler polling. Below IdleThreshold consecutive empty polls the
	// scheduler polls at PollInterval; at or above it, at IdlePollInterval.
	PollInterval     time.Duration `env:"DOCPIPE_POLL_INTERVAL,default=2s"`
	IdlePollInterval time.Duration `env:"DOCPIPE_IDLE_POLL_INTERVAL,default=10s"`
	IdleThreshold    int           `env:"DOCPIPE_IDLE_THRESHOLD,default=5"`
	JobTimeout       time.Duration `env:"DOCPIPE_JOB_TIMEOUT,default=2m"`

	// Dispatcher polling; the interval doubles on empty cycles up to the max.
	DispatchInterval    time.Duration `env:"DOCPIPE_DISPATCH_INTERVAL,default=2s"`
	DispatchMaxInterval time.Duration `env:"DOCPIPE_DISPATCH_MAX_INTERVAL,default=30s"`

	// Reaper
	ReapSchedule string        `env:"DOCPIPE_REAP_SCHEDULE,default=@hourly"`
	RetentionAge time.Duration `env:"DOCPIPE_RETENTION_AGE,default=24h"`

	// Analysis bounds
	MaxTextChars   int    `env:"DOCPIPE_MAX_TEXT_CHARS,default=15000"`
	MaxResultChars int    `env:"DOCPIPE_MAX_RESULT_CHARS,default=65536"`
	ProvidersFile  string `env:"DOCPIPE_PROVIDERS_FILE,default=providers.yaml"`

	// Delivery and ingest surface
	WebhookURL string `env:"DOCPIPE_WEBHOOK_URL"`
	ListenAddr string `env:"DOCPIPE_LISTEN_ADDR,default=:8080"`

	// Logging
	LogLevel  string `env:"DOCPIPE_LOG_LEVEL,default=info"`
	LogFormat string `env:"DOCPIPE_LOG_FORMAT,default=console"`
}

// Load reads the configuration from the environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	var problems []string

	switch cfg.DatabaseDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DatabasePath) == "" {
			problems = append(problems, "DOCPIPE_DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseDSN) == "" {
			problems = append(problems, "DOCPIPE_DB_DSN is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("DOCPIPE_DB_DRIVER must be sqlite or postgres, got %q", cfg.DatabaseDriver))
	}

	if cfg.MaxRetries < 0 {
		problems = append(problems, "DOCPIPE_MAX_RETRIES must be non-negative")
	}
	for name, d := range map[string]time.Duration{
		"DOCPIPE_POLL_INTERVAL":         cfg.PollInterval,
		"DOCPIPE_IDLE_POLL_INTERVAL":    cfg.IdlePollInterval,
		"DOCPIPE_JOB_TIMEOUT":           cfg.JobTimeout,
		"DOCPIPE_DISPATCH_INTERVAL":     cfg.DispatchInterval,
		"DOCPIPE_DISPATCH_MAX_INTERVAL": cfg.DispatchMaxInterval,
		"DOCPIPE_RETENTION_AGE":         cfg.RetentionAge,
	} {
		if d <= 0 {
			problems = append(problems, name+" must be positive")
		}
	}
	if cfg.IdleThreshold < 1 {
		problems = append(problems, "DOCPIPE_IDLE_THRESHOLD must be at least 1")
	}
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		problems = append(problems, "DOCPIPE_WEBHOOK_URL is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
