package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueFull is returned by Enqueue when the job cannot be buffered.
var ErrQueueFull = errors.New("notify: queue full")

// WelcomeJob is one pending welcome email.
type WelcomeJob struct {
	CustomerID string `json:"customerId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
}

// Queue buffers welcome jobs between the request path and the worker.
type Queue interface {
	// Enqueue must not wait for a consumer.
	Enqueue(ctx context.Context, job WelcomeJob) error
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (WelcomeJob, error)
}

// ChannelQueue is an in-process Queue. Jobs are lost on restart.
type ChannelQueue struct {
	jobs chan WelcomeJob
}

// NewChannelQueue creates a ChannelQueue holding up to size jobs.
func NewChannelQueue(size int) *ChannelQueue {
	if size < 1 {
		size = 1
	}
	return &ChannelQueue{jobs: make(chan WelcomeJob, size)}
}

func (q *ChannelQueue) Enqueue(ctx context.Context, job WelcomeJob) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *ChannelQueue) Dequeue(ctx context.Context) (WelcomeJob, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return WelcomeJob{}, ctx.Err()
	}
}

// RedisQueue stores jobs in a Redis list so they survive API restarts.
// Producers LPUSH and the worker BRPOPs, giving FIFO order.
type RedisQueue struct {
	client  *redis.Client
	key     string
	maxLen  int64
	pollFor time.Duration
}

// NewRedisQueue creates a queue on key. maxLen bounds the list; zero means unbounded.
func NewRedisQueue(client *redis.Client, key string, maxLen int) *RedisQueue {
	return &RedisQueue{client: client, key: key, maxLen: int64(maxLen), pollFor: time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job WelcomeJob) error {
	if q.maxLen > 0 {
		n, err := q.client.LLen(ctx, q.key).Result()
		if err != nil {
			return fmt.Errorf("queue length: %w", err)
		}
		if n >= q.maxLen {
			return ErrQueueFull
		}
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (WelcomeJob, error) {
	for {
		res, err := q.client.BRPop(ctx, q.pollFor, q.key).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return WelcomeJob{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return WelcomeJob{}, ctx.Err()
			}
			return WelcomeJob{}, fmt.Errorf("pop job: %w", err)
		}
		// BRPOP replies with [key, value].
		if len(res) != 2 {
			return WelcomeJob{}, fmt.Errorf("pop job: unexpected reply %v", res)
		}
		var job WelcomeJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return WelcomeJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}
