package queue

import (
	"context"

	"resume-triage/internal/models"
)

// Producer is the enqueue side, used by the API layer and by stage handlers
// chaining the next stage.
type Producer interface {
	Enqueue(ctx context.Context, task models.Task) error
}

// Consumer is the worker side. Dequeue blocks until a task is available;
// Ack removes a finished task from the in-flight list. Delivery is
// at-least-once: a worker crash leaves the task in flight for recovery, so
// handlers must be idempotent.
type Consumer interface {
	Dequeue(ctx context.Context) (models.Task, error)
	Ack(ctx context.Context, task models.Task) error
}

type TaskQueue interface {
	Producer
	Consumer
}
