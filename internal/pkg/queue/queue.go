package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Job kinds understood by the worker.
const (
	KindSweepLifecycle = "sweep_lifecycle"
	KindResetUsage     = "reset_usage"
)

// Queue is a FIFO of lifecycle jobs on a Redis list.
type Queue struct {
	client    *redis.Client
	queueName string
}

type JobMessage struct {
	Kind        string    `json:"kind"`
	RequestedAt time.Time `json:"requested_at"`
	RequestedBy string    `json:"requested_by,omitempty"`
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

func (q *Queue) Push(ctx context.Context, msg *JobMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Pop blocks up to timeout. A nil job with nil error means the wait timed out.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*JobMessage, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}

	var msg JobMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &msg, nil
}

func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}

// Dispatch enqueues a job of the given kind; it lets the scheduler stay unaware of Redis.
func (q *Queue) Dispatch(ctx context.Context, kind string) error {
	return q.Push(ctx, &JobMessage{Kind: kind, RequestedAt: time.Now().UTC(), RequestedBy: "cron"})
}
