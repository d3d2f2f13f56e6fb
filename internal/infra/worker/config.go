// Package worker wires the three durable-queue pools (sync, deliver,
// clean) together: environment configuration, the HTTP health/metrics
// surfaces, and startup readiness reporting.
package worker

import (
	"feedrelay/internal/pkg/config"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// WorkerConfig holds the environment-derived configuration for the
// worker process: the database connection, feed fetch timeout, each
// pool's worker count, and each periodic job's cron schedule.
//
// Every field is loaded with fail-open fallback to a safe default, so a
// malformed environment never prevents the process from starting; it
// only logs a warning and runs with defaults instead.
type WorkerConfig struct {
	// DatabaseURL is the Postgres DSN the queue and every repository
	// connect through.
	DatabaseURL string

	// TelegramBotToken authenticates the chat transport's Telegram
	// client.
	TelegramBotToken string

	// RequestTimeout bounds a single feed fetch HTTP request.
	RequestTimeout time.Duration

	// SyncCron, DeliverCron, and CleanCron are the cron schedules the
	// scheduler registers each pool's periodic scan task against.
	//
	// SyncCron alone may be empty: an operator who sets SYNC_CRON=""
	// explicitly opts the sync scan into SyncIntervalSecs' fixed-cadence
	// ticker instead of a cron schedule (§6). Leaving SYNC_CRON unset
	// keeps the cron default.
	SyncCron    string
	DeliverCron string
	CleanCron   string

	// SyncIntervalSecs is both the fixed-cadence fallback period used when
	// SyncCron is empty, and the staleness horizon SyncJob's scan selects
	// unsynced feeds against (how long a feed may go unrefreshed before
	// it's due again).
	SyncIntervalSecs int

	// SyncWorkers, DeliverWorkers, and CleanWorkers size each pool's
	// worker goroutines.
	SyncWorkers    int
	DeliverWorkers int
	CleanWorkers   int

	// HealthPort serves the liveness/readiness HTTP endpoints.
	HealthPort int

	// MetricsPort serves the Prometheus /metrics endpoint.
	MetricsPort int
}

// DefaultConfig returns a WorkerConfig with production-ready defaults: a
// sync pass every minute, delivery every minute, cleanup once an hour,
// and a handful of workers per pool (§4, §6 default cadence).
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		DatabaseURL:      "",
		TelegramBotToken: "",
		RequestTimeout:   5 * time.Second,
		SyncCron:         "* * * * *",
		DeliverCron:      "* * * * *",
		CleanCron:        "0 * * * *",
		SyncIntervalSecs: 60,
		SyncWorkers:      4,
		DeliverWorkers:   4,
		CleanWorkers:     1,
		HealthPort:       9091,
		MetricsPort:      9090,
	}
}

// Validate checks every field against the same rules LoadConfigFromEnv
// enforces per-field, aggregating every failure into a single error.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("database url: must not be empty"))
	}
	if err := config.ValidatePositiveDuration(c.RequestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("request timeout: %w", err))
	}
	if c.SyncCron != "" {
		if err := config.ValidateCronSchedule(c.SyncCron); err != nil {
			errs = append(errs, fmt.Errorf("sync cron: %w", err))
		}
	}
	if err := config.ValidateIntRange(c.SyncIntervalSecs, 1, 86400); err != nil {
		errs = append(errs, fmt.Errorf("sync interval secs: %w", err))
	}
	if err := config.ValidateCronSchedule(c.DeliverCron); err != nil {
		errs = append(errs, fmt.Errorf("deliver cron: %w", err))
	}
	if err := config.ValidateCronSchedule(c.CleanCron); err != nil {
		errs = append(errs, fmt.Errorf("clean cron: %w", err))
	}
	if err := config.ValidateIntRange(c.SyncWorkers, 1, 64); err != nil {
		errs = append(errs, fmt.Errorf("sync workers: %w", err))
	}
	if err := config.ValidateIntRange(c.DeliverWorkers, 1, 64); err != nil {
		errs = append(errs, fmt.Errorf("deliver workers: %w", err))
	}
	if err := config.ValidateIntRange(c.CleanWorkers, 1, 64); err != nil {
		errs = append(errs, fmt.Errorf("clean workers: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads WorkerConfig from the environment, falling
// back field-by-field to DefaultConfig on any missing or invalid value
// (DatabaseURL and TelegramBotToken are the exceptions: they have no
// usable default, so an empty environment value is carried through as
// empty and the caller decides whether to fail startup on it).
//
// Environment variables:
//   - DATABASE_URL
//   - TELEGRAM_BOT_TOKEN
//   - REQUEST_TIMEOUT (Go duration string, default 5s)
//   - SYNC_CRON, DELIVER_CRON, CLEAN_CRON (cron expressions). Setting
//     SYNC_CRON="" explicitly (present in the environment but empty)
//     opts sync scheduling into the SYNC_INTERVAL_SECS ticker instead;
//     leaving it unset keeps the cron default.
//   - SYNC_INTERVAL_SECS (seconds, default 60): the sync scan's staleness
//     horizon, and, when SYNC_CRON is emptied, its scheduling cadence too.
//   - SYNC_WORKERS_NUMBER, DELIVER_WORKERS_NUMBER, CLEAN_WORKERS_NUMBER
//   - WORKER_HEALTH_PORT, METRICS_PORT
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	cfg.DatabaseURL = config.LoadEnvString("DATABASE_URL", cfg.DatabaseURL)
	cfg.TelegramBotToken = config.LoadEnvString("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)

	applyDuration := func(field, envKey string, current, min, max time.Duration) time.Duration {
		result := config.LoadEnvDuration(envKey, current, func(d time.Duration) error {
			return config.ValidateDuration(d, min, max)
		})
		if result.FallbackApplied {
			fallbackApplied = true
			metrics.RecordValidationError(field)
			metrics.RecordFallback(field, "default")
			for _, warning := range result.Warnings {
				logger.Warn("configuration fallback applied", slog.String("field", field), slog.String("warning", warning))
			}
		}
		return result.Value.(time.Duration)
	}

	applyCron := func(field, envKey, current string) string {
		result := config.LoadEnvWithFallback(envKey, current, config.ValidateCronSchedule)
		if result.FallbackApplied {
			fallbackApplied = true
			metrics.RecordValidationError(field)
			metrics.RecordFallback(field, "default")
			for _, warning := range result.Warnings {
				logger.Warn("configuration fallback applied", slog.String("field", field), slog.String("warning", warning))
			}
		}
		return result.Value.(string)
	}

	applyInt := func(field, envKey string, current, min, max int) int {
		result := config.LoadEnvInt(envKey, current, func(v int) error {
			return config.ValidateIntRange(v, min, max)
		})
		if result.FallbackApplied {
			fallbackApplied = true
			metrics.RecordValidationError(field)
			metrics.RecordFallback(field, "default")
			for _, warning := range result.Warnings {
				logger.Warn("configuration fallback applied", slog.String("field", field), slog.String("warning", warning))
			}
		}
		return result.Value.(int)
	}

	cfg.RequestTimeout = applyDuration("request_timeout", "REQUEST_TIMEOUT", cfg.RequestTimeout, time.Second, 5*time.Minute)

	if raw, present := os.LookupEnv("SYNC_CRON"); present && raw == "" {
		cfg.SyncCron = ""
	} else {
		cfg.SyncCron = applyCron("sync_cron", "SYNC_CRON", cfg.SyncCron)
	}
	cfg.SyncIntervalSecs = applyInt("sync_interval_secs", "SYNC_INTERVAL_SECS", cfg.SyncIntervalSecs, 1, 86400)

	cfg.DeliverCron = applyCron("deliver_cron", "DELIVER_CRON", cfg.DeliverCron)
	cfg.CleanCron = applyCron("clean_cron", "CLEAN_CRON", cfg.CleanCron)
	cfg.SyncWorkers = applyInt("sync_workers", "SYNC_WORKERS_NUMBER", cfg.SyncWorkers, 1, 64)
	cfg.DeliverWorkers = applyInt("deliver_workers", "DELIVER_WORKERS_NUMBER", cfg.DeliverWorkers, 1, 64)
	cfg.CleanWorkers = applyInt("clean_workers", "CLEAN_WORKERS_NUMBER", cfg.CleanWorkers, 1, 64)
	cfg.HealthPort = applyInt("health_port", "WORKER_HEALTH_PORT", cfg.HealthPort, 1024, 65535)
	cfg.MetricsPort = applyInt("metrics_port", "METRICS_PORT", cfg.MetricsPort, 1024, 65535)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
