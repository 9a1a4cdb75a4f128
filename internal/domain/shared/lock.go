package shared

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotHeld is returned when releasing a lock that expired or was taken over
var ErrLockNotHeld = errors.New("lock not held")

// Locker grants exclusive access to a named resource across workers
type Locker interface {
	// Acquire blocks until the lock is held or ctx is done.
	// The lock expires after ttl if it is never released.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}
