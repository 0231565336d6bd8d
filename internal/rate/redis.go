package rate

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared across instances.
// Each window is a single key incremented atomically; the TTL is set
// only on the first hit so the window boundary is stable.
//
// Policy on backend failure is configurable. FailOpen (the default)
// admits traffic when Redis is unreachable: a limiter outage must not
// take legitimate sign-ins down with it. The cost is that the ceiling
// is not enforced during the outage, which is an accepted weakening
// under attack. Fail-closed deployments invert the tradeoff.
type RedisLimiter struct {
	client   redis.UniversalClient
	config   Config
	prefix   string
	failOpen bool
	logger   *slog.Logger
}

// NewRedisLimiter creates a shared limiter. prefix namespaces the
// counter keys so several named limiters can share one Redis.
func NewRedisLimiter(client redis.UniversalClient, cfg Config, prefix string, failOpen bool, logger *slog.Logger) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{
		client:   client,
		config:   cfg,
		prefix:   prefix,
		failOpen: failOpen,
		logger:   logger,
	}
}

// Allow atomically increments the counter for key's current window and
// admits the request while the count is within the ceiling.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	k := l.prefix + ":" + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return l.failure(err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, k, l.config.Per).Err(); err != nil {
			return l.failure(err)
		}
	}

	return count <= int64(l.config.Calls)
}

func (l *RedisLimiter) failure(err error) bool {
	if l.failOpen {
		l.logger.Warn("rate limiter backend unreachable, admitting request",
			slog.Any("error", err))
		return true
	}
	l.logger.Error("rate limiter backend unreachable, rejecting request",
		slog.Any("error", err))
	return false
}

// Window is exported for tests that need to step past a window
// boundary via miniredis FastForward.
func (l *RedisLimiter) Window() time.Duration {
	return l.config.Per
}
