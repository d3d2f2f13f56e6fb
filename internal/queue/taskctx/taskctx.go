// Package taskctx propagates a task's identity through context.Context, the
// job-execution equivalent of an HTTP request ID: every log line emitted
// while a task runs can be tied back to the task_id that produced it.
package taskctx

import "context"

type contextKey string

const taskIDKey contextKey = "task_id"

// FromContext retrieves the task ID from ctx, or "" if none is set.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(taskIDKey).(string); ok {
		return id
	}
	return ""
}

// WithTaskID returns a context carrying id as the active task ID.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey, id)
}
