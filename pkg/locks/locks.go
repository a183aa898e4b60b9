// Package locks serializes detection and merge runs per tenant.
package locks

import (
	"context"
	"errors"
)

var (
	// ErrLockNotAcquired is returned when a lock cannot be acquired before the wait expires
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld is returned when releasing a lock that expired or belongs to someone else
	ErrLockNotHeld = errors.New("lock not held")
)

// Locker runs fn while holding the lock for key
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
