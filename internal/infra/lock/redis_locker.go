package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"loyalty/internal/domain/service"
	"loyalty/internal/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`
	retryInterval  = 25 * time.Millisecond
	releaseTimeout = 2 * time.Second
)

// redisLocker holds keys across processes with SET NX PX and an owner token.
type redisLocker struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLocker returns a distributed keyed locker. A holder that dies keeps the key for at most ttl.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) service.Locker {
	return &redisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire polls for key until it is free or ctx is done.
func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	token := uuid.NewString()
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "waiting for lock %s", key)
		}

		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Wrapf(ctxErr, "waiting for lock %s", key)
			}

			return nil, errors.Wrapf(err, "failed to acquire lock %s", key)
		}
		if ok {
			return l.releaser(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "waiting for lock %s", key)
		case <-ticker.C:
		}
	}
}

func (l *redisLocker) releaser(key, token string) func() {
	var once sync.Once

	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled; release must still reach redis.
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			if err := l.script.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("Failed to release lock",
					slog.String("key", key),
					slog.Any("error", err),
				)
			}
		})
	}
}
