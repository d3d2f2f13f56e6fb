package queue

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/observability/logging"
	"feedrelay/internal/observability/metrics"
	"feedrelay/internal/observability/tracing"
	"feedrelay/internal/queue/taskctx"
)

// VisibilityTimeout bounds how long a claimed task may stay in_progress
// before ReclaimExpired makes it runnable again, covering a worker that
// crashed mid-task.
const VisibilityTimeout = 5 * time.Minute

// PollInterval is how often an idle worker re-checks for runnable work.
const PollInterval = 2 * time.Second

// Pool runs count workers draining taskType against registry, using q as
// the backing queue. Each worker loops fetch_next -> dispatch -> finish,
// per the §4.1 contract.
type Pool struct {
	q         *Queue
	taskType  entity.TaskType
	registry  *Registry
	count     int
	logger    *slog.Logger
	collector *metrics.QueueCollector
}

func NewPool(q *Queue, taskType entity.TaskType, registry *Registry, count int, logger *slog.Logger, collector *metrics.QueueCollector) *Pool {
	return &Pool{q: q, taskType: taskType, registry: registry, count: count, logger: logger, collector: collector}
}

// Run blocks until ctx is cancelled, running p.count worker goroutines.
func (p *Pool) Run(ctx context.Context) {
	done := make(chan struct{}, p.count)
	for i := 0; i < p.count; i++ {
		go func(workerID int) {
			p.runWorker(ctx, workerID)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < p.count; i++ {
		<-done
	}
}

func (p *Pool) runWorker(ctx context.Context, workerID int) {
	logger := p.logger.With(slog.String("task_type", string(p.taskType)), slog.Int("worker", workerID))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := p.q.FetchNext(ctx, p.taskType, VisibilityTimeout)
		if err != nil {
			logger.Error("fetch_next failed, backing off", slog.Any("error", err))
			sleep(ctx, PollInterval)
			continue
		}
		if task == nil {
			sleep(ctx, PollInterval)
			continue
		}

		taskLogger := logging.WithTaskID(taskctx.WithTaskID(ctx, strconv.FormatInt(task.ID, 10)), logger)

		spanCtx, span := tracing.StartJobSpan(ctx, string(p.taskType))
		spanCtx = taskctx.WithTaskID(spanCtx, strconv.FormatInt(task.ID, 10))
		start := time.Now()
		outcome := p.registry.Dispatch(spanCtx, p.taskType, task.Payload)
		duration := time.Since(start)
		span.End()

		if err := p.q.Finish(ctx, task, outcome); err != nil {
			taskLogger.Error("finish failed", slog.Any("error", err))
		}

		if p.collector != nil {
			p.collector.RecordOutcome(string(p.taskType), outcome.Err == nil, duration)
		}

		if outcome.Err != nil {
			taskLogger.Warn("task failed",
				slog.Bool("retriable", outcome.Retriable),
				slog.Any("error", outcome.Err))
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
