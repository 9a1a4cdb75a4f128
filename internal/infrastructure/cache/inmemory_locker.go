package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/urlsync/internal/domain/shared"
)

// InMemoryLocker serializes lock holders inside one process.
// The ttl is ignored: a lock lives until it is released.
type InMemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewInMemoryLocker creates a new in-memory locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{slots: make(map[string]chan struct{})}
}

// Acquire implements shared.Locker
func (l *InMemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	slot := l.slot(key)
	select {
	case slot <- struct{}{}:
		return &inMemoryLock{slot: slot}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *InMemoryLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	return slot
}

type inMemoryLock struct {
	once sync.Once
	slot chan struct{}
}

func (l *inMemoryLock) Release(ctx context.Context) error {
	err := shared.ErrLockNotHeld
	l.once.Do(func() {
		<-l.slot
		err = nil
	})
	return err
}

// Ensure InMemoryLocker implements Locker
var _ shared.Locker = (*InMemoryLocker)(nil)
