// Package realtime fans admission events out to live dashboard connections.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Event types.
const (
	EventRSVPCreated       = "rsvp.created"
	EventRSVPStatusChanged = "rsvp.status_changed"
	EventCheckinCompleted  = "checkin.completed"
)

const (
	defaultChannel = "club25:events"
	subscriberBuf  = 32
)

// Event is one realtime notification. Names are first names only.
type Event struct {
	Type      string    `json:"type"`
	DropID    string    `json:"dropId"`
	RSVPID    string    `json:"rsvpId,omitempty"`
	GuestName string    `json:"guestName,omitempty"`
	Status    string    `json:"status,omitempty"`
	Previous  string    `json:"previousStatus,omitempty"`
	At        time.Time `json:"at"`
}

// Broker publishes events and hands out subscriptions. Slow subscribers miss events
// rather than block publishers.
type Broker interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
}

// Publish sends e through b and logs failures. A nil broker is a no-op.
func Publish(ctx context.Context, b Broker, e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := b.Publish(ctx, e); err != nil {
		log.Error().Err(err).Str("type", e.Type).Msg("realtime publish failed")
	}
}

// LocalBroker delivers within one process.
type LocalBroker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[int]chan Event)}
}

func (b *LocalBroker) Publish(ctx context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuf)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

// RedisBroker relays events over Redis pub/sub so every API instance sees them.
type RedisBroker struct {
	Rdb     *redis.Client
	Channel string
}

func (b *RedisBroker) channel() string {
	if b.Channel != "" {
		return b.Channel
	}
	return defaultChannel
}

func (b *RedisBroker) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.Rdb.Publish(ctx, b.channel(), payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	ps := b.Rdb.Subscribe(ctx, b.channel())
	// wait for the subscribe confirmation so no event published after return is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}
	out := make(chan Event, subscriberBuf)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					log.Warn().Err(err).Msg("realtime: undecodable event dropped")
					continue
				}
				select {
				case out <- e:
				default:
				}
			}
		}
	}()
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
	return out, cancel, nil
}
