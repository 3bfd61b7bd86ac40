// Package locks provides keyed mutual exclusion for admission decisions.
package locks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock could not be taken before the wait deadline.
var ErrNotAcquired = errors.New("lock not acquired")

// Release frees a held lock. Safe to call once.
type Release func()

// Locker serializes work on a key across goroutines (and processes, for Redis).
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

const (
	keyPrefix      = "lock:"
	defaultTTL     = 10 * time.Second
	defaultWait    = 5 * time.Second
	defaultBackoff = 25 * time.Millisecond
)

// compare-and-delete so a lock that expired and was re-taken is not released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX + token release).
type RedisLocker struct {
	Rdb     *redis.Client
	TTL     time.Duration
	Wait    time.Duration
	Backoff time.Duration
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	ttl, wait, backoff := l.TTL, l.Wait, l.Backoff
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if wait <= 0 {
		wait = defaultWait
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	token := uuid.New().String()
	redisKey := keyPrefix + key
	deadline := time.Now().Add(wait)
	for {
		ok, err := l.Rdb.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					_ = releaseScript.Run(context.Background(), l.Rdb, []string{redisKey}, token).Err()
				})
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// LocalLocker is an in-process keyed mutex, used when Redis is not configured.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
	Wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (Release, error) {
	wait := l.Wait
	if wait <= 0 {
		wait = defaultWait
	}
	l.mu.Lock()
	if l.slots == nil {
		l.slots = make(map[string]*slot)
	}
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.unref(key, s)
			})
		}, nil
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctx.Err()
	case <-timer.C:
		l.unref(key, s)
		return nil, ErrNotAcquired
	}
}

func (l *LocalLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
