package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"resume-triage/internal/models"
)

const (
	pendingList    = "tasks:pending"
	processingList = "tasks:processing"
)

// RedisQueue carries stage-transition tasks on a Redis list. BLMOVE parks
// each dequeued task on a processing list so a crashed worker's task survives
// for recovery instead of vanishing with the pop.
type RedisQueue struct {
	client *redis.Client
}

func New(ctx context.Context, connectionString string) (*RedisQueue, error) {
	opt, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("could not parse redis connection string: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return &RedisQueue{client: rdb}, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) Enqueue(ctx context.Context, task models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.client.LPush(ctx, pendingList, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue %s task for upload %s: %w", task.Stage, task.UploadID, err)
	}
	return nil
}

// Dequeue blocks until a task arrives, moving it onto the processing list in
// the same step.
func (q *RedisQueue) Dequeue(ctx context.Context) (models.Task, error) {
	payload, err := q.client.BLMove(ctx, pendingList, processingList, "RIGHT", "LEFT", 0).Result()
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to dequeue task: %w", err)
	}

	var task models.Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		// Drop the malformed payload so it cannot wedge the queue.
		q.client.LRem(ctx, processingList, 1, payload)
		return models.Task{}, fmt.Errorf("malformed task payload %q: %w", payload, err)
	}
	if err := task.Validate(); err != nil {
		q.client.LRem(ctx, processingList, 1, payload)
		return models.Task{}, fmt.Errorf("invalid task payload %q: %w", payload, err)
	}
	return task, nil
}

// Ack removes a completed task from the processing list. Marshaling is
// deterministic, so the payload matches what Dequeue moved.
func (q *RedisQueue) Ack(ctx context.Context, task models.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := q.client.LRem(ctx, processingList, 1, payload).Err(); err != nil {
		return fmt.Errorf("failed to ack %s task for upload %s: %w", task.Stage, task.UploadID, err)
	}
	return nil
}

// RecoverInFlight pushes tasks abandoned on the processing list back onto the
// pending list. Called once at pool startup, before any worker dequeues.
func (q *RedisQueue) RecoverInFlight(ctx context.Context) (int, error) {
	recovered := 0
	for {
		_, err := q.client.LMove(ctx, processingList, pendingList, "RIGHT", "LEFT").Result()
		if err == redis.Nil {
			return recovered, nil
		}
		if err != nil {
			return recovered, fmt.Errorf("failed to recover in-flight tasks: %w", err)
		}
		recovered++
	}
}
