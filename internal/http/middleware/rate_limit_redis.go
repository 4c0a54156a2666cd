package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared across replicas. The window
// key expires on its own, so a lost EXPIRE at worst extends one window.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := time.Now()
	windowStart := now.Truncate(window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, windowStart.Unix())

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	n := int(count.Val())
	if n > limit {
		retry := windowStart.Add(window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}
	return Decision{Allowed: true, Remaining: limit - n}, nil
}
