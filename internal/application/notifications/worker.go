package notifications

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = 5 * time.Minute
	defaultPollWait    = 2 * time.Second
)

// Backoff returns the delay before retry number attempt (1-based): base, 2*base, 4*base... capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// Worker drains the queue and delivers e-mails, rescheduling failures.
type Worker struct {
	Queue       Queue
	Sender      Sender
	AppURL      string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	PollWait    time.Duration
	Now         func() time.Time
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) limits() (int, time.Duration, time.Duration) {
	max, base, ceiling := w.MaxAttempts, w.BaseDelay, w.MaxDelay
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if ceiling <= 0 {
		ceiling = DefaultMaxDelay
	}
	return max, base, ceiling
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	wait := w.PollWait
	if wait <= 0 {
		wait = defaultPollWait
	}
	log.Info().Msg("notification worker started")
	var processed, failed int
	for {
		if ctx.Err() != nil {
			log.Info().Int("processed", processed).Int("failed", failed).Msg("notification worker stopped")
			return
		}
		job, err := w.Queue.Dequeue(ctx, wait)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("notification dequeue failed")
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}
		if job == nil {
			continue
		}
		processed++
		if err := w.Process(ctx, *job); err != nil {
			failed++
		}
	}
}

// Process delivers one job. A failed delivery is rescheduled with backoff until the
// attempt limit, after which the job is dropped and logged.
func (w *Worker) Process(ctx context.Context, job Job) error {
	if w.Sender == nil {
		log.Debug().Str("kind", job.Kind).Str("to", job.To).Msg("no e-mail sender configured; dropping notification")
		return nil
	}
	email, err := Render(job, w.AppURL)
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Str("kind", job.Kind).Msg("notification render failed; dropping")
		return err
	}
	err = w.Sender.Send(ctx, email)
	if err == nil {
		log.Info().Str("job_id", job.ID).Str("kind", job.Kind).Int("attempt", job.Attempts+1).Msg("notification sent")
		return nil
	}

	max, base, ceiling := w.limits()
	job.Attempts++
	if job.Attempts >= max {
		log.Error().Err(err).Str("job_id", job.ID).Str("kind", job.Kind).Int("attempts", job.Attempts).Msg("notification failed permanently")
		return err
	}
	at := w.now().Add(Backoff(job.Attempts, base, ceiling))
	if qerr := w.Queue.Retry(ctx, job, at); qerr != nil {
		log.Error().Err(qerr).Str("job_id", job.ID).Msg("notification retry could not be scheduled")
		return qerr
	}
	log.Warn().Err(err).Str("job_id", job.ID).Str("kind", job.Kind).Int("attempts", job.Attempts).Time("retry_at", at).Msg("notification send failed; retrying")
	return err
}
