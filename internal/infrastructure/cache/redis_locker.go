package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/urlsync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultLockPrefix namespaces lock keys
	DefaultLockPrefix = "urlsync:lock:"

	// DefaultLockRetryInterval is the pause between SetNX attempts
	DefaultLockRetryInterval = 100 * time.Millisecond
)

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements shared.Locker with SET NX PX and a token checked on release,
// so workers in several server processes share one lock
type RedisLocker struct {
	client        redis.UniversalClient
	keyPrefix     string
	retryInterval time.Duration
}

// NewRedisLocker creates a new Redis-backed locker
func NewRedisLocker(client redis.UniversalClient, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = DefaultLockPrefix
	}
	return &RedisLocker{
		client:        client,
		keyPrefix:     keyPrefix,
		retryInterval: DefaultLockRetryInterval,
	}
}

// Acquire implements shared.Locker
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	fullKey := l.keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return &redisLock{client: l.client, key: fullKey, token: token}, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type redisLock struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (l *redisLock) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	if deleted == 0 {
		return shared.ErrLockNotHeld
	}
	return nil
}

// Ensure RedisLocker implements Locker
var _ shared.Locker = (*RedisLocker)(nil)
