package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"feedrelay/internal/domain/entity"
)

// SchedulerCheckPeriod is how often the scheduler loop wakes to check
// registered cron schedules and expired leases.
const SchedulerCheckPeriod = 10 * time.Second

// ErrorMargin is how early a job may fire before its computed next run:
// a wake-up at or after nextRun-ErrorMargin fires it. A job whose next
// run has already passed fires on the next wake-up however late that is,
// so a missed wake-up doesn't silently skip a job.
const ErrorMargin = 10 * time.Second

// periodicJob is one cron-registered recurring task.
type periodicJob struct {
	taskType entity.TaskType
	payload  []byte
	schedule cron.Schedule
	nextRun  time.Time
}

// fixedInterval is a cron.Schedule of one: it fires every d regardless of
// wall-clock alignment, backing RegisterInterval's fixed-cadence fallback
// for operators who set SYNC_INTERVAL_SECS instead of a cron expression.
type fixedInterval struct {
	d time.Duration
}

func (f fixedInterval) Next(t time.Time) time.Time {
	return t.Add(f.d)
}

// Scheduler drives cron-style recurring Enqueue calls and periodically
// reclaims expired in_progress tasks. Its schedule table is in memory:
// every Register or RegisterInterval call adds a job, and calling either
// twice for the same taskType keeps both schedules. Enqueueing is what
// stays idempotent: SchedulePeriodic keys the task on its taskType, so at
// most one instance of it is pending at a time.
type Scheduler struct {
	q      *Queue
	jobs   []*periodicJob
	logger *slog.Logger
}

func NewScheduler(q *Queue, logger *slog.Logger) *Scheduler {
	return &Scheduler{q: q, logger: logger}
}

// Register adds taskType as a cron-scheduled job. cronExpr follows the
// standard 5-field cron syntax (robfig/cron's ParseStandard).
func (s *Scheduler) Register(taskType entity.TaskType, cronExpr string, payload []byte) error {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return err
	}
	s.jobs = append(s.jobs, &periodicJob{
		taskType: taskType,
		payload:  payload,
		schedule: schedule,
		nextRun:  schedule.Next(time.Now()),
	})
	return nil
}

// RegisterInterval adds taskType as a fixed-cadence job, firing every
// interval rather than on a cron schedule. This is the fallback path for
// operators who configure SYNC_INTERVAL_SECS instead of a cron expression
// (§6).
func (s *Scheduler) RegisterInterval(taskType entity.TaskType, interval time.Duration, payload []byte) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	s.jobs = append(s.jobs, &periodicJob{
		taskType: taskType,
		payload:  payload,
		schedule: fixedInterval{d: interval},
		nextRun:  time.Now().Add(interval),
	})
	return nil
}

// Run blocks until ctx is cancelled, ticking every SchedulerCheckPeriod to
// fire due cron jobs and reclaim expired task leases.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(SchedulerCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()
	for _, job := range s.jobs {
		if now.Before(job.nextRun.Add(-ErrorMargin)) {
			continue
		}
		if err := s.q.SchedulePeriodic(ctx, job.taskType, jobCronExpr(job), job.payload); err != nil {
			s.logger.Error("schedule_periodic failed",
				slog.String("task_type", string(job.taskType)), slog.Any("error", err))
		}
		job.nextRun = job.schedule.Next(now)
	}

	if n, err := s.q.ReclaimExpired(ctx, VisibilityTimeout); err != nil {
		s.logger.Error("reclaim_expired failed", slog.Any("error", err))
	} else if n > 0 {
		s.logger.Info("reclaimed expired tasks", slog.Int64("count", n))
	}
}

// jobCronExpr is a placeholder cron_expr recorded on the task row; the
// Scheduler itself is the source of truth for timing, so the column exists
// for operator visibility rather than being re-parsed by the queue.
func jobCronExpr(job *periodicJob) string {
	return string(job.taskType) + "@" + job.nextRun.Format(time.RFC3339)
}
