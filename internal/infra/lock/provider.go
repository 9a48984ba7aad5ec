package lock

import (
	"context"
	"log/slog"

	"loyalty/config"
	"loyalty/internal/domain/lifecycle"
	"loyalty/internal/domain/service"
	"loyalty/internal/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// LockerParams holds dependencies for Locker, injected by Fx
type LockerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewLocker picks the redis locker when redis is configured and the in-process one otherwise.
// The in-process locker is only correct while a single API instance serves a database.
func NewLocker(params LockerParams) service.Locker {
	cfg := params.Config.Redis
	if cfg == nil || cfg.Addr == "" {
		params.Logger.Info("Redis not configured, using in-process locks")

		return NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	params.Lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping Redis")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	params.Logger.Info("Using Redis locks",
		slog.String("addr", cfg.Addr),
		slog.Duration("ttl", cfg.LockTTL),
	)

	return NewRedisLocker(client, cfg.LockTTL, params.Logger)
}

// Module provides the lock FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewLocker),
)
