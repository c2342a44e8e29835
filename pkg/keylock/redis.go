package keylock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/reelsync/pkg/lifecycle"
)

const (
	minBackoff = 10 * time.Millisecond
	maxBackoff = 500 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Redis is a Locker backed by SET NX with a TTL. Ownership is proven on
// release with a random token so an expired lock is never deleted by its
// previous holder.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	logger *slog.Logger
}

// NewRedis connects to the configured Redis address.
func NewRedis(cfg *Config, logger *slog.Logger) *Redis {
	return &Redis{
		rdb:    redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
		prefix: cfg.Prefix,
		ttl:    cfg.TTLDuration(),
		wait:   cfg.WaitDuration(),
		logger: logger.With("system", "keylock"),
	}
}

// Ping verifies the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Start registers a readiness ping and a shutdown hook that closes the client.
func (r *Redis) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() error {
		if err := r.Ping(lc.Context()); err != nil {
			r.logger.Error("lock backend unreachable", "error", err)
			return err
		}
		r.logger.Info("lock backend connected")
		return nil
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := r.rdb.Close(); err != nil {
			r.logger.Error("lock backend close failed", "error", err)
		}
	})

	return nil
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := r.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)
	backoff := minBackoff

	for {
		ok, err := r.rdb.SetNX(ctx, lockKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			r.logger.Debug("lock acquired", "key", key)
			return r.releaser(lockKey, token), nil
		}

		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

func (r *Redis) releaser(lockKey, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		n, err := releaseScript.Run(ctx, r.rdb, []string{lockKey}, token).Int64()
		switch {
		case err != nil && !errors.Is(err, redis.Nil):
			r.logger.Error("lock release failed", "key", lockKey, "error", err)
		case n == 0:
			r.logger.Warn("lock expired before release", "key", lockKey)
		}
	}
}
