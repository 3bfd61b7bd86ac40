package notifications

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher is the producer side: request handlers enqueue and move on.
type Dispatcher struct {
	Queue Queue
	Now   func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// Enqueue stamps and queues a job.
func (d *Dispatcher) Enqueue(ctx context.Context, job Job) error {
	job.stamp(d.now())
	return d.Queue.Enqueue(ctx, job)
}

// Notify enqueues without surfacing failures. Delivery problems never reach the caller.
func (d *Dispatcher) Notify(ctx context.Context, job Job) {
	if d == nil || d.Queue == nil {
		return
	}
	if job.To == "" {
		log.Warn().Str("kind", job.Kind).Msg("notification without recipient skipped")
		return
	}
	if err := d.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("kind", job.Kind).Str("to", job.To).Msg("notification enqueue failed")
	}
}
