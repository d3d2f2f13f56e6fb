package entity

import "time"

// TaskType is the name a worker pool is keyed by; one pool per type
// drains Tasks of that type exclusively.
type TaskType string

const (
	TaskTypeSync     TaskType = "sync"
	TaskTypeDeliver  TaskType = "deliver"
	TaskTypeClean    TaskType = "clean"
)

// TaskState is a Task's lifecycle position.
type TaskState string

const (
	TaskStateNew        TaskState = "new"
	TaskStateInProgress TaskState = "in_progress"
	TaskStateFinished   TaskState = "finished"
	TaskStateFailed     TaskState = "failed"
)

// Task is one unit of work owned by the durable job queue (C1). Payload
// is an opaque, task_type-specific serialized blob; the queue itself
// never interprets it. UniqHash, when set, is the uniqueness key: at
// most one non-terminal Task may exist with the same (TaskType,
// UniqHash) pair.
type Task struct {
	ID          int64
	UniqHash    string
	TaskType    TaskType
	State       TaskState
	Payload     []byte
	RunAt       time.Time
	Retries     int
	MaxRetries  int
	CronExpr    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Outcome is what a Runnable reports back to the queue after executing
// one Task.
type Outcome struct {
	// Err is nil on success. A non-nil Err with Retriable=false fails the
	// task immediately regardless of remaining attempts.
	Err       error
	Retriable bool
}

// Success is the Outcome for a Task that completed without error.
func Success() Outcome { return Outcome{} }

// Failure wraps err as a retriable Outcome, the default for transient
// failures that the queue's backoff should retry.
func Failure(err error) Outcome { return Outcome{Err: err, Retriable: true} }

// Terminal wraps err as a non-retriable Outcome: the task moves straight
// to failed regardless of retries remaining.
func Terminal(err error) Outcome { return Outcome{Err: err, Retriable: false} }

// IsTerminal reports whether the task has left the new/in_progress
// lifecycle.
func (t *Task) IsTerminal() bool {
	return t.State == TaskStateFinished || t.State == TaskStateFailed
}
