// Command worker is the process entry point: it wires the persistence
// layer, the durable job queue's three worker pools, the scheduler that
// drives their periodic scans, and the health/metrics HTTP surfaces,
// then blocks until terminated.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"feedrelay/internal/domain/entity"
	pgRepo "feedrelay/internal/infra/adapter/persistence/postgres"
	"feedrelay/internal/infra/db"
	"feedrelay/internal/infra/feedfetch"
	"feedrelay/internal/infra/transport"
	workerPkg "feedrelay/internal/infra/worker"
	"feedrelay/internal/observability/metrics"
	"feedrelay/internal/queue"
	"feedrelay/internal/usecase/clean"
	"feedrelay/internal/usecase/deliver"
	"feedrelay/internal/usecase/sync"
)

func main() {
	logger := initLogger()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()

	cfg, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("sync_cron", cfg.SyncCron),
		slog.String("deliver_cron", cfg.DeliverCron),
		slog.String("clean_cron", cfg.CleanCron),
		slog.Int("sync_workers", cfg.SyncWorkers),
		slog.Int("deliver_workers", cfg.DeliverWorkers),
		slog.Int("clean_workers", cfg.CleanWorkers))

	database := openDatabase(logger, cfg.DatabaseURL)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	startMetricsServer(ctx, logger, cfg.MetricsPort)

	q, registry := wireQueueAndJobs(logger, database, cfg)

	scheduler := queue.NewScheduler(q, logger)
	registerPeriodicJobs(logger, scheduler, cfg)

	pools := []*queue.Pool{
		queue.NewPool(q, entity.TaskTypeSync, registry, cfg.SyncWorkers, logger, metrics.NewQueueCollector()),
		queue.NewPool(q, entity.TaskTypeDeliver, registry, cfg.DeliverWorkers, logger, metrics.NewQueueCollector()),
		queue.NewPool(q, entity.TaskTypeClean, registry, cfg.CleanWorkers, logger, metrics.NewQueueCollector()),
	}

	go scheduler.Run(ctx)
	for _, pool := range pools {
		go pool.Run(ctx)
	}

	healthServer.SetReady(true)
	logger.Info("worker started")

	<-ctx.Done()
	logger.Info("shutdown signal received, draining in-flight work")
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

// initLogger builds the structured JSON logger every component logs
// through, honoring LOG_LEVEL=debug.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}

// openDatabase opens the Postgres pool and runs MigrateUp, exiting the
// process on either failure since nothing downstream can run without a
// schema.
func openDatabase(logger *slog.Logger, dsn string) *sql.DB {
	if dsn == "" {
		logger.Error("DATABASE_URL is empty")
		os.Exit(1)
	}
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready")
	return database
}

// wireQueueAndJobs builds the five repositories, the feed fetcher, the
// chat transport, the Queue façade, and registers each pool's Runnable
// against it.
func wireQueueAndJobs(logger *slog.Logger, database *sql.DB, cfg *workerPkg.WorkerConfig) (*queue.Queue, *queue.Registry) {
	feeds := pgRepo.NewFeedRepo(database)
	items := pgRepo.NewFeedItemRepo(database)
	chats := pgRepo.NewChatRepo(database)
	subs := pgRepo.NewSubscriptionRepo(database)
	tasks := pgRepo.NewTaskRepo(database)

	q := queue.New(tasks)

	fetcherCfg := feedfetch.DefaultConfig()
	fetcherCfg.RequestTimeout = cfg.RequestTimeout
	fetcher := feedfetch.New(fetcherCfg)

	chatTransport := newChatTransport(logger, cfg.TelegramBotToken)

	registry := queue.NewRegistry()

	syncJobs := &sync.Jobs{
		Feeds:     feeds,
		Items:     items,
		Chats:     chats,
		Subs:      subs,
		Fetcher:   fetcher,
		Transport: chatTransport,
		Queue:     q,
		Logger:    logger,
		Interval:  time.Duration(cfg.SyncIntervalSecs) * time.Second,
	}
	deliverJobs := &deliver.Jobs{
		Feeds:     feeds,
		Items:     items,
		Chats:     chats,
		Subs:      subs,
		Transport: chatTransport,
		Queue:     q,
		Logger:    logger,
	}
	cleanJobs := &clean.Jobs{
		Feeds:  feeds,
		Items:  items,
		Queue:  q,
		Logger: logger,
	}

	registry.Register(entity.TaskTypeSync, syncJobs.Execute)
	registry.Register(entity.TaskTypeDeliver, deliverJobs.Execute)
	registry.Register(entity.TaskTypeClean, cleanJobs.Execute)

	return q, registry
}

// newChatTransport authenticates a Telegram bot client from token, or
// logs a warning and returns a transport with a nil sender when unset
// (development/test environments that never actually deliver).
func newChatTransport(logger *slog.Logger, token string) *transport.ChatTransport {
	if token == "" {
		logger.Warn("TELEGRAM_BOT_TOKEN is empty, chat delivery is disabled")
		return transport.NewForTest(noopSender{})
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("failed to authenticate telegram bot, chat delivery is disabled", slog.Any("error", err))
		return transport.NewForTest(noopSender{})
	}
	logger.Info("telegram bot authenticated", slog.String("username", bot.Self.UserName))
	return transport.New(bot)
}

type noopSender struct{}

func (noopSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, nil
}

// registerPeriodicJobs registers each pool's recurring scan against the
// scheduler using the cron schedules worker configuration loaded.
func registerPeriodicJobs(logger *slog.Logger, scheduler *queue.Scheduler, cfg *workerPkg.WorkerConfig) {
	if cfg.SyncCron != "" {
		if err := scheduler.Register(entity.TaskTypeSync, cfg.SyncCron, sync.ScanPayload()); err != nil {
			logger.Error("failed to register sync scan", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		interval := time.Duration(cfg.SyncIntervalSecs) * time.Second
		if err := scheduler.RegisterInterval(entity.TaskTypeSync, interval, sync.ScanPayload()); err != nil {
			logger.Error("failed to register sync scan", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if err := scheduler.Register(entity.TaskTypeDeliver, cfg.DeliverCron, deliver.ScanPayload()); err != nil {
		logger.Error("failed to register deliver scan", slog.Any("error", err))
		os.Exit(1)
	}
	if err := scheduler.Register(entity.TaskTypeClean, cfg.CleanCron, clean.ScanPayload()); err != nil {
		logger.Error("failed to register clean scan", slog.Any("error", err))
		os.Exit(1)
	}
}

