package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"vector-rag/internal/retry"
)

const retryBase = time.Second

// NewNATS constructs a thin NATS-based queue. Tasks without their own
// MaxAttempts are given up after maxAttempts handler failures.
func NewNATS(log *slog.Logger, nc *nats.Conn, maxAttempts int) Queue {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &natsQueue{log: log, nc: nc, maxAttempts: maxAttempts}
}

type natsQueue struct {
	log         *slog.Logger
	nc          *nats.Conn
	maxAttempts int
}

func subject(t TaskType) string {
	return "tasks." + string(t)
}

func (q *natsQueue) Enqueue(_ context.Context, task Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Type == "" {
		return errors.New("task type required")
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.nc.Publish(subject(task.Type), body)
}

func (q *natsQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	group := "workers-" + string(taskType)
	sub, err := q.nc.QueueSubscribe(subject(taskType), group, func(msg *nats.Msg) {
		q.handleMessage(ctx, msg, handler)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (q *natsQueue) Close() error {
	return q.nc.Drain()
}

func (q *natsQueue) handleMessage(ctx context.Context, msg *nats.Msg, handler Handler) {
	var task Task
	if err := json.Unmarshal(msg.Data, &task); err != nil {
		q.log.Error("failed to decode task", "err", err)
		return
	}

	if wait := time.Until(task.NotBefore); wait > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}

	if err := handler(ctx, task); err != nil {
		q.retryTask(ctx, task, err)
	}
}

func (q *natsQueue) retryTask(ctx context.Context, task Task, handlerErr error) {
	task.Attempts++
	if task.MaxAttempts == 0 {
		task.MaxAttempts = q.maxAttempts
	}

	if task.Attempts >= task.MaxAttempts {
		q.log.Error("task permanently failed", "id", task.ID, "type", task.Type, "attempts", task.Attempts, "original_err", handlerErr)
		return
	}
	task.NotBefore = time.Now().Add(retry.ExponentialBackoff(task.Attempts, retryBase))
	if err := q.Enqueue(ctx, task); err != nil {
		q.log.Error("failed to re-enqueue task after failure", "id", task.ID, "type", task.Type, "original_err", handlerErr, "enqueue_err", err)
	}
}
