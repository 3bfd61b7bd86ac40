package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFOAndDelay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := &MemoryQueue{Now: func() time.Time { return now }}

	require.NoError(t, q.Enqueue(ctx, Job{ID: "1"}))
	require.NoError(t, q.Enqueue(ctx, Job{ID: "2"}))
	require.NoError(t, q.Retry(ctx, Job{ID: "later"}, now.Add(time.Minute)))

	a, err := q.Dequeue(ctx, 0)
	require.NoError(t, err)
	b, err := q.Dequeue(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "1", a.ID)
	assert.Equal(t, "2", b.ID)

	none, err := q.Dequeue(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, none)

	now = now.Add(2 * time.Minute)
	later, err := q.Dequeue(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, later)
	assert.Equal(t, "later", later.ID)
}

func TestMemoryQueue_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&MemoryQueue{}).Dequeue(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisQueue_RoundTripAndRetry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := &RedisQueue{Rdb: rdb, Now: func() time.Time { return now }}

	job := sampleJob(KindRSVPConfirmation)
	job.ID = "job-1"
	require.NoError(t, q.Enqueue(ctx, job))

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, "C25-ABCD-EFGH", got.ConfirmationCode)
	assert.True(t, got.DropDate.Equal(job.DropDate))

	got.Attempts = 1
	require.NoError(t, q.Retry(ctx, *got, now.Add(30*time.Second)))
	ready, delayed, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ready)
	assert.Equal(t, int64(1), delayed)

	// not yet due: promote leaves it alone
	require.NoError(t, q.promote(ctx))
	ready, _, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ready)

	now = now.Add(time.Minute)
	retried, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, retried)
	assert.Equal(t, 1, retried.Attempts)

	ready, delayed, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, ready)
	assert.Zero(t, delayed)
}
