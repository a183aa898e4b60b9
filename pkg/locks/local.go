package locks

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process keyed mutex for single-instance deployments and tests
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration
}

// NewLocalLocker creates a LocalLocker that waits up to wait for a busy key
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		slots: make(map[string]chan struct{}),
		wait:  wait,
	}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	s := l.slot(key)

	select {
	case s <- struct{}{}:
	default:
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		select {
		case s <- struct{}{}:
		case <-timer.C:
			return ErrLockNotAcquired
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	defer func() { <-s }()

	return fn(ctx)
}
