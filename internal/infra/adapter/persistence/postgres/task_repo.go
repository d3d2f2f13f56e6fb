package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/repository"
)

// TaskRepo is the Postgres-backed repository.TaskRepository backing the
// durable job queue (C1). FetchNext uses SELECT ... FOR UPDATE SKIP LOCKED
// so concurrent workers in the same pool never double-claim a row.
type TaskRepo struct{ db *sql.DB }

func NewTaskRepo(db *sql.DB) repository.TaskRepository {
	return &TaskRepo{db: db}
}

const taskColumns = `id, uniq_hash, task_type, state, payload, run_at, retries, max_retries, cron_expr, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*entity.Task, error) {
	var t entity.Task
	if err := row.Scan(
		&t.ID, &t.UniqHash, &t.TaskType, &t.State, &t.Payload, &t.RunAt,
		&t.Retries, &t.MaxRetries, &t.CronExpr, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// DefaultMaxRetries bounds how many times a retriable task is re-attempted
// before moving to failed.
const DefaultMaxRetries = 5

func (r *TaskRepo) Enqueue(ctx context.Context, taskType entity.TaskType, uniqHash string, payload []byte, runAt time.Time) (*entity.Task, error) {
	if uniqHash != "" {
		existing, err := r.findPendingByHash(ctx, taskType, uniqHash)
		if err != nil {
			return nil, fmt.Errorf("Enqueue: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	query := `INSERT INTO tasks (uniq_hash, task_type, state, payload, run_at, retries, max_retries, cron_expr, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 0, $6, '', now(), now())
RETURNING ` + taskColumns
	t, err := scanTask(r.db.QueryRowContext(ctx, query,
		uniqHash, taskType, entity.TaskStateNew, payload, runAt, DefaultMaxRetries))
	if err != nil {
		return nil, fmt.Errorf("Enqueue: %w", err)
	}
	return t, nil
}

func (r *TaskRepo) findPendingByHash(ctx context.Context, taskType entity.TaskType, uniqHash string) (*entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
WHERE task_type = $1 AND uniq_hash = $2 AND state IN ($3, $4)
LIMIT 1`
	t, err := scanTask(r.db.QueryRowContext(ctx, query,
		taskType, uniqHash, entity.TaskStateNew, entity.TaskStateInProgress))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TaskRepo) SchedulePeriodic(ctx context.Context, taskType entity.TaskType, uniqHash string, cronExpr string, payload []byte) error {
	query := `INSERT INTO tasks (uniq_hash, task_type, state, payload, run_at, retries, max_retries, cron_expr, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), 0, $5, $6, now(), now())
ON CONFLICT (task_type, uniq_hash) WHERE state NOT IN ('finished', 'failed')
DO UPDATE SET cron_expr = EXCLUDED.cron_expr`
	_, err := r.db.ExecContext(ctx, query,
		uniqHash, taskType, entity.TaskStateNew, payload, DefaultMaxRetries, cronExpr)
	if err != nil {
		return fmt.Errorf("SchedulePeriodic: %w", err)
	}
	return nil
}

func (r *TaskRepo) FetchNext(ctx context.Context, taskType entity.TaskType, visibilityTimeout time.Duration, now time.Time) (*entity.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("FetchNext: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	leaseExpiry := now.Add(-visibilityTimeout)
	query := `SELECT ` + taskColumns + ` FROM tasks
WHERE task_type = $1
AND (
	(state = $2 AND run_at <= $3)
	OR (state = $4 AND updated_at <= $5)
)
ORDER BY run_at ASC
LIMIT 1
FOR UPDATE SKIP LOCKED`
	t, err := scanTask(tx.QueryRowContext(ctx, query,
		taskType, entity.TaskStateNew, now, entity.TaskStateInProgress, leaseExpiry))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FetchNext: %w", err)
	}

	const claim = `UPDATE tasks SET state = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, claim, entity.TaskStateInProgress, now, t.ID); err != nil {
		return nil, fmt.Errorf("FetchNext: claim: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("FetchNext: commit: %w", err)
	}

	t.State = entity.TaskStateInProgress
	return t, nil
}

func (r *TaskRepo) Finish(ctx context.Context, taskID int64, outcome entity.Outcome, backoff time.Duration) error {
	if outcome.Err == nil {
		return r.finishTerminal(ctx, taskID, entity.TaskStateFinished)
	}

	if !outcome.Retriable {
		return r.finishTerminal(ctx, taskID, entity.TaskStateFailed)
	}

	const query = `UPDATE tasks SET
	state = CASE WHEN retries + 1 >= max_retries THEN $1 ELSE $2 END,
	retries = retries + 1,
	run_at = CASE WHEN retries + 1 >= max_retries THEN run_at ELSE now() + $3 * interval '1 microsecond' END,
	updated_at = now()
WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query,
		entity.TaskStateFailed, entity.TaskStateNew, backoff.Microseconds(), taskID)
	if err != nil {
		return fmt.Errorf("Finish: %w", err)
	}
	return nil
}

func (r *TaskRepo) finishTerminal(ctx context.Context, taskID int64, state entity.TaskState) error {
	if state == entity.TaskStateFinished {
		// Retention: finished tasks, periodic ones included, are removed;
		// the Scheduler enqueues a periodic job's next instance when its
		// schedule next comes due.
		const del = `DELETE FROM tasks WHERE id = $1`
		if _, err := r.db.ExecContext(ctx, del, taskID); err != nil {
			return fmt.Errorf("finishTerminal: delete: %w", err)
		}
		return nil
	}

	const query = `UPDATE tasks SET state = $1, updated_at = now() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, state, taskID); err != nil {
		return fmt.Errorf("finishTerminal: %w", err)
	}
	return nil
}

func (r *TaskRepo) ReclaimExpired(ctx context.Context, visibilityTimeout time.Duration, now time.Time) (int64, error) {
	leaseExpiry := now.Add(-visibilityTimeout)
	const query = `UPDATE tasks SET state = $1, updated_at = $2
WHERE state = $3 AND updated_at <= $4`
	res, err := r.db.ExecContext(ctx, query, entity.TaskStateNew, now, entity.TaskStateInProgress, leaseExpiry)
	if err != nil {
		return 0, fmt.Errorf("ReclaimExpired: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *TaskRepo) Depth(ctx context.Context, taskType entity.TaskType, now time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM tasks WHERE task_type = $1 AND state = $2 AND run_at <= $3`
	var n int64
	err := r.db.QueryRowContext(ctx, query, taskType, entity.TaskStateNew, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("Depth: %w", err)
	}
	return n, nil
}
