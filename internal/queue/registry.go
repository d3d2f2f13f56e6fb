package queue

import (
	"context"

	"feedrelay/internal/domain/entity"
)

// Runnable executes one Task's payload and reports how it went. Per
// REDESIGN FLAGS, dispatch is by (task_type, payload) through a registry
// rather than a tagged-union command type, since task_type already
// separates the three worker pools and each pool only ever runs one kind
// of job.
type Runnable func(ctx context.Context, payload []byte) entity.Outcome

// Registry maps a TaskType to the Runnable its worker pool dispatches to.
type Registry struct {
	handlers map[entity.TaskType]Runnable
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[entity.TaskType]Runnable)}
}

// Register binds taskType to fn. Registering the same taskType twice
// overwrites the previous binding.
func (r *Registry) Register(taskType entity.TaskType, fn Runnable) {
	r.handlers[taskType] = fn
}

// Dispatch invokes the Runnable bound to taskType. An unregistered
// taskType is a programming error and fails the task non-retriably.
func (r *Registry) Dispatch(ctx context.Context, taskType entity.TaskType, payload []byte) entity.Outcome {
	fn, ok := r.handlers[taskType]
	if !ok {
		return entity.Terminal(ErrNoHandler(taskType))
	}
	return fn(ctx, payload)
}
