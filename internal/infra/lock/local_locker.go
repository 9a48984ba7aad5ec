// Package lock provides keyed mutual exclusion for profile and redemption updates.
package lock

import (
	"context"
	"sync"

	"loyalty/internal/domain/service"
	"loyalty/internal/errors"
)

// localLocker serializes holders of the same key within one process.
type localLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker returns an in-process keyed locker.
func NewLocalLocker() service.Locker {
	return &localLocker{slots: make(map[string]*slot)}
}

// Acquire waits for key until ctx is done.
func (l *localLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	s := l.ref(key)

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)

		return nil, errors.Wrapf(ctx.Err(), "waiting for lock %s", key)
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}, nil
}

func (l *localLocker) ref(key string) *slot {
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

func (l *localLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
