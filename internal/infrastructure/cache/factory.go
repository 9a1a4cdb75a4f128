package cache

import (
	"context"
	"time"

	"github.com/erp/urlsync/internal/domain/shared"
	"github.com/erp/urlsync/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// pingTimeout bounds the Redis reachability check
const pingTimeout = 5 * time.Second

// Coordination holds the event idempotency store and the regeneration locker.
// Both live in Redis when it is configured and reachable, so several server
// processes share them, and in memory otherwise.
type Coordination struct {
	Idempotency shared.IdempotencyStore
	Locker      shared.Locker
	distributed bool
}

// NewCoordination connects to Redis and falls back to in-memory backends
func NewCoordination(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Coordination {
	client := connect(ctx, cfg, logger)
	if client == nil {
		return &Coordination{
			Idempotency: NewInMemoryIdempotencyStore(),
			Locker:      NewInMemoryLocker(),
		}
	}
	logger.Info("Using Redis for event idempotency and regeneration locks", zap.String("addr", cfg.Addr()))
	return &Coordination{
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Locker:      NewRedisLocker(client, ""),
		distributed: true,
	}
}

// Distributed reports whether the backends are shared through Redis
func (c *Coordination) Distributed() bool {
	return c.distributed
}

// Close releases the backends and the Redis connection
func (c *Coordination) Close() error {
	return c.Idempotency.Close()
}

// connect returns a pinged client, or nil when Redis is not configured or unreachable
func connect(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) redis.UniversalClient {
	if !cfg.Enabled() {
		logger.Info("Redis not configured, using in-memory idempotency store and locks")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store and locks",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return nil
	}
	return client
}
