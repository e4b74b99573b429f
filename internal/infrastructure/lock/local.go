package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker serializes within one process. Used with in-memory storage or
// when no redis address is configured.
type LocalLocker struct {
	mu       sync.Mutex
	slots    map[string]*slot
	wait     time.Duration
	observer Observer
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a locker that waits up to wait for a held key.
func NewLocalLocker(wait time.Duration, observer Observer) *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot), wait: wait, observer: observer}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (Releaser, error) {
	s := l.ref(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
	case <-timer.C:
		l.unref(key)
		l.observe("busy")
		return nil, ErrBusy
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	}
	l.observe("acquired")

	var once sync.Once
	return func(context.Context) {
		once.Do(func() {
			<-s.ch
			l.unref(key)
		})
	}, nil
}

func (l *LocalLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[key]; ok {
		s.refs--
		if s.refs == 0 {
			delete(l.slots, key)
		}
	}
}

func (l *LocalLocker) observe(outcome string) {
	if l.observer != nil {
		l.observer.LockAttempt(outcome)
	}
}
