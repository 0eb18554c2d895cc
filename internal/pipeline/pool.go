package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"resume-triage/internal/queue"
)

// recoverer is implemented by queues that keep an in-flight list across
// restarts, such as the Redis-backed one.
type recoverer interface {
	RecoverInFlight(ctx context.Context) (int, error)
}

// Pool runs a fixed number of workers pulling tasks off the queue and
// handing them to the dispatcher.
type Pool struct {
	queue      queue.TaskQueue
	dispatcher *Dispatcher
	workers    int
	log        *zap.Logger
}

func NewPool(q queue.TaskQueue, d *Dispatcher, workers int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	return &Pool{queue: q, dispatcher: d, workers: workers, log: log}
}

// Run requeues tasks a previous process left in flight, then blocks serving
// tasks until ctx is cancelled and every worker has drained.
func (p *Pool) Run(ctx context.Context) {
	if r, ok := p.queue.(recoverer); ok {
		n, err := r.RecoverInFlight(ctx)
		if err != nil {
			p.log.Error("could not recover in-flight tasks", zap.Error(err))
		} else if n > 0 {
			p.log.Info("requeued in-flight tasks from previous run", zap.Int("count", n))
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}
	wg.Wait()
	p.log.Info("all workers stopped")
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	log := p.log.With(zap.Int("worker", id))
	log.Info("worker started")

	for {
		if ctx.Err() != nil {
			return
		}

		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("dequeue failed, backing off", zap.Error(err))
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		outcome := p.dispatcher.Handle(ctx, task)
		if outcome == OutcomeAborted {
			// Leave the task in flight; RecoverInFlight redelivers it on
			// the next start.
			continue
		}

		// Ack even during shutdown so a finished task is not redelivered.
		ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := p.queue.Ack(ackCtx, task); err != nil {
			log.Error("ack failed, task may be redelivered", zap.Error(err))
		}
		cancel()

		log.Info("task finished",
			zap.String("upload_id", task.UploadID.String()),
			zap.String("stage", string(task.Stage)),
			zap.String("outcome", outcome.String()))
	}
}
