package repository

import (
	"context"
	"time"

	"feedrelay/internal/domain/entity"
)

// TaskRepository is the store contract backing the durable job queue (C1).
// FetchNext and Finish together implement the lease: FetchNext atomically
// claims one runnable task for taskType (run_at <= now, state=new, or
// state=in_progress with a lease older than visibilityTimeout), marking it
// in_progress; Finish records the Outcome and either deletes the row
// (success), marks it failed and keeps it (a non-retriable error, or a
// retriable one with no retries left), or reschedules it with a
// backed-off run_at.
type TaskRepository interface {
	// Enqueue inserts a new task, or is a no-op if a non-terminal task
	// with the same (TaskType, UniqHash) already exists (UniqHash=""
	// disables the uniqueness check entirely).
	Enqueue(ctx context.Context, taskType entity.TaskType, uniqHash string, payload []byte, runAt time.Time) (*entity.Task, error)

	// SchedulePeriodic registers cronExpr as the recurring schedule for
	// taskType/uniqHash; idempotent across process restarts so re-running
	// the scheduler's startup registration never double-books a cron job.
	SchedulePeriodic(ctx context.Context, taskType entity.TaskType, uniqHash string, cronExpr string, payload []byte) error

	// FetchNext claims and returns the next runnable task of taskType, or
	// nil if none is due.
	FetchNext(ctx context.Context, taskType entity.TaskType, visibilityTimeout time.Duration, now time.Time) (*entity.Task, error)

	// Finish records outcome for task. A nil outcome.Err deletes the row;
	// a non-retriable error marks it failed and keeps it; a retriable
	// error with retries remaining reschedules run_at by backoff, and one
	// with no retries left marks it failed and keeps it.
	Finish(ctx context.Context, taskID int64, outcome entity.Outcome, backoff time.Duration) error

	// ReclaimExpired resets in_progress tasks whose lease is older than
	// visibilityTimeout back to new, for workers that died mid-task.
	ReclaimExpired(ctx context.Context, visibilityTimeout time.Duration, now time.Time) (int64, error)

	// Depth reports how many runnable (new or overdue) tasks of taskType
	// are queued, for the queue-depth gauge.
	Depth(ctx context.Context, taskType entity.TaskType, now time.Time) (int64, error)
}
