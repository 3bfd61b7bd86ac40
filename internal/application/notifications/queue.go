package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultQueueKey   = "notify:queue"
	defaultDelayedKey = "notify:delayed"
	memoryPoll        = 10 * time.Millisecond
)

// Queue holds pending jobs. Dequeue returns (nil, nil) when nothing arrived within wait.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context, wait time.Duration) (*Job, error)
	Retry(ctx context.Context, job Job, at time.Time) error
}

// RedisQueue is a list for ready jobs plus a sorted set (score = due unix ms) for retries.
type RedisQueue struct {
	Rdb        *redis.Client
	Key        string
	DelayedKey string
	Now        func() time.Time
}

func (q *RedisQueue) key() string {
	if q.Key != "" {
		return q.Key
	}
	return defaultQueueKey
}

func (q *RedisQueue) delayedKey() string {
	if q.DelayedKey != "" {
		return q.DelayedKey
	}
	return defaultDelayedKey
}

func (q *RedisQueue) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.Rdb.LPush(ctx, q.key(), b).Err()
}

func (q *RedisQueue) Retry(ctx context.Context, job Job, at time.Time) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.Rdb.ZAdd(ctx, q.delayedKey(), redis.Z{Score: float64(at.UnixMilli()), Member: string(b)}).Err()
}

// promote moves due retries onto the ready list. ZRem decides the winner when several
// workers race for the same member.
func (q *RedisQueue) promote(ctx context.Context) error {
	due, err := q.Rdb.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(q.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return err
	}
	for _, member := range due {
		removed, err := q.Rdb.ZRem(ctx, q.delayedKey(), member).Result()
		if err != nil {
			return err
		}
		if removed == 1 {
			if err := q.Rdb.LPush(ctx, q.key(), member).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (*Job, error) {
	if err := q.promote(ctx); err != nil {
		return nil, fmt.Errorf("promote delayed: %w", err)
	}
	res, err := q.Rdb.BRPop(ctx, wait, q.key()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// res = [key, value]
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// Len reports ready and delayed job counts.
func (q *RedisQueue) Len(ctx context.Context) (ready, delayed int64, err error) {
	if ready, err = q.Rdb.LLen(ctx, q.key()).Result(); err != nil {
		return 0, 0, err
	}
	delayed, err = q.Rdb.ZCard(ctx, q.delayedKey()).Result()
	return ready, delayed, err
}

type delayedJob struct {
	job Job
	at  time.Time
}

// MemoryQueue is the in-process queue used when Redis is not configured.
type MemoryQueue struct {
	mu      sync.Mutex
	ready   []Job
	delayed []delayedJob
	Now     func() time.Time
}

func (q *MemoryQueue) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	q.ready = append(q.ready, job)
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Retry(ctx context.Context, job Job, at time.Time) error {
	q.mu.Lock()
	q.delayed = append(q.delayed, delayedJob{job: job, at: at})
	sort.Slice(q.delayed, func(i, j int) bool { return q.delayed[i].at.Before(q.delayed[j].at) })
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) take() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	for len(q.delayed) > 0 && !q.delayed[0].at.After(now) {
		q.ready = append(q.ready, q.delayed[0].job)
		q.delayed = q.delayed[1:]
	}
	if len(q.ready) == 0 {
		return nil
	}
	job := q.ready[0]
	q.ready = q.ready[1:]
	return &job
}

func (q *MemoryQueue) Dequeue(ctx context.Context, wait time.Duration) (*Job, error) {
	deadline := time.Now().Add(wait)
	for {
		if job := q.take(); job != nil {
			return job, nil
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(memoryPoll):
		}
	}
}

// Len reports ready and delayed job counts.
func (q *MemoryQueue) Len() (ready, delayed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready), len(q.delayed)
}
