// Package queue implements the durable job queue (C1): a Postgres-backed
// task table, three worker pools keyed by task_type, and a cron-driven
// scheduler for periodic jobs.
package queue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/repository"
)

// Queue is the thin façade over repository.TaskRepository the rest of the
// codebase enqueues work through.
type Queue struct {
	tasks repository.TaskRepository
}

func New(tasks repository.TaskRepository) *Queue {
	return &Queue{tasks: tasks}
}

// HashPayload is the uniqueness key enqueue(unique=true) compares against:
// the serialized payload hash, scoped by the queue to (task_type, hash).
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Enqueue inserts a task for taskType. When unique is true, an equivalent
// non-terminal task (same task_type and payload hash) short-circuits this
// call and its existing Task is returned instead.
func (q *Queue) Enqueue(ctx context.Context, taskType entity.TaskType, payload []byte, unique bool) (*entity.Task, error) {
	return q.EnqueueAt(ctx, taskType, payload, unique, time.Now())
}

// EnqueueAt is Enqueue with an explicit run_at, used by callers that want
// to delay a task (e.g. retry-after scheduling above and beyond the
// queue's own backoff).
func (q *Queue) EnqueueAt(ctx context.Context, taskType entity.TaskType, payload []byte, unique bool, runAt time.Time) (*entity.Task, error) {
	hash := ""
	if unique {
		hash = HashPayload(payload)
	}
	return q.tasks.Enqueue(ctx, taskType, hash, payload, runAt)
}

// SchedulePeriodic registers cronExpr as taskType's recurring schedule.
// payload is enqueued fresh on each tick when no instance is already
// pending; registration itself is idempotent.
func (q *Queue) SchedulePeriodic(ctx context.Context, taskType entity.TaskType, cronExpr string, payload []byte) error {
	return q.tasks.SchedulePeriodic(ctx, taskType, string(taskType), cronExpr, payload)
}

// FetchNext claims the next runnable task of taskType.
func (q *Queue) FetchNext(ctx context.Context, taskType entity.TaskType, visibilityTimeout time.Duration) (*entity.Task, error) {
	return q.tasks.FetchNext(ctx, taskType, visibilityTimeout, time.Now())
}

// Finish records outcome for task. A retriable failure is rescheduled
// after RetryBackoff(task.Retries), which grows exponentially with the
// task's retry count.
func (q *Queue) Finish(ctx context.Context, task *entity.Task, outcome entity.Outcome) error {
	backoff := RetryBackoff(task.Retries)
	return q.tasks.Finish(ctx, task.ID, outcome, backoff)
}

// ReclaimExpired resets in_progress tasks whose lease has expired back to
// new, for workers that crashed mid-task.
func (q *Queue) ReclaimExpired(ctx context.Context, visibilityTimeout time.Duration) (int64, error) {
	return q.tasks.ReclaimExpired(ctx, visibilityTimeout, time.Now())
}

// Depth reports the number of runnable tasks of taskType.
func (q *Queue) Depth(ctx context.Context, taskType entity.TaskType) (int64, error) {
	return q.tasks.Depth(ctx, taskType, time.Now())
}

// RetryBackoff is the exponential backoff the queue applies between
// attempts: 2^retries seconds, capped at 10 minutes.
func RetryBackoff(retries int) time.Duration {
	const maxBackoff = 10 * time.Minute
	d := time.Second
	for i := 0; i < retries && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
