package queue

import (
	"fmt"

	"feedrelay/internal/domain/entity"
)

// ErrNoHandler reports that no Runnable is registered for taskType.
func ErrNoHandler(taskType entity.TaskType) error {
	return fmt.Errorf("queue: no handler registered for task type %q", taskType)
}
