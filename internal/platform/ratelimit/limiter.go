// Package ratelimit implements a per-client sliding window limiter backed by
// a Redis sorted set: one member per request, scored by its arrival time.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanord8/YL-portal-sub002/internal/config"
)

const keyPrefix = "ratelimit:"

// Result is the outcome of one Allow call
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a client may make another request
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter keeps a request log per key in a Redis sorted set
type RedisLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client redis.Cmdable, cfg *config.RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  cfg.Requests,
		window: cfg.Window,
		now:    time.Now,
	}
}

// Allow records the request and reports whether it fits in the window.
// Rejected requests are removed again so they do not extend the block.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	nowMs := now.UnixMilli()
	windowStart := nowMs - l.window.Milliseconds()
	redisKey := keyPrefix + key
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	var card *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(windowStart, 10))
		card = pipe.ZCard(ctx, redisKey)
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowMs), Member: member})
		pipe.PExpire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to record request: %w", err)
	}

	count := int(card.Val())
	if count < l.limit {
		return Result{
			Allowed:   true,
			Limit:     l.limit,
			Remaining: l.limit - count - 1,
		}, nil
	}

	if err := l.client.ZRem(ctx, redisKey, member).Err(); err != nil {
		return Result{}, fmt.Errorf("failed to drop rejected request: %w", err)
	}

	retryAfter := l.window
	oldest, err := l.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read window start: %w", err)
	}
	if len(oldest) == 1 {
		retryAfter = time.UnixMilli(int64(oldest[0].Score)).Add(l.window).Sub(now)
	}
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	return Result{
		Allowed:    false,
		Limit:      l.limit,
		RetryAfter: retryAfter,
	}, nil
}
