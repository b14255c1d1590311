// Package ratelimit implements sliding-window request limits backed by Redis sorted sets.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limit caps requests per window. Zero disables a window.
type Limit struct {
	PerMinute int
	PerHour   int
}

func (l Limit) windows() []window {
	return []window{
		{time.Minute, l.PerMinute},
		{time.Hour, l.PerHour},
	}
}

type window struct {
	duration time.Duration
	limit    int
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int64
	// RetryAfter is set when the request was denied.
	RetryAfter time.Duration
}

type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "tutorbilling:ratelimit"
	}
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (l *RedisRateLimiter) SetClock(now func() time.Time) {
	l.now = now
}

// Allow records one request for key and reports whether it fits every configured window.
// Denied requests are not counted against later windows.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (Decision, error) {
	now := l.now()
	decision := Decision{Allowed: true, Remaining: -1}

	for _, w := range limit.windows() {
		if w.limit <= 0 {
			continue
		}

		count, oldest, err := l.checkWindow(ctx, key, w.duration, now)
		if err != nil {
			return Decision{}, err
		}

		if count >= int64(w.limit) {
			retry := w.duration - now.Sub(oldest)
			if retry < time.Second {
				retry = time.Second
			}
			return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
		}

		remaining := int64(w.limit) - count - 1
		if decision.Remaining < 0 || remaining < decision.Remaining {
			decision.Remaining = remaining
		}
	}

	if err := l.record(ctx, key, limit, now); err != nil {
		return Decision{}, err
	}
	return decision, nil
}

func (l *RedisRateLimiter) checkWindow(ctx context.Context, key string, window time.Duration, now time.Time) (int64, time.Time, error) {
	redisKey := l.getKey(key, window)
	windowStart := now.Add(-window).UnixMicro()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	zcard := pipe.ZCard(ctx, redisKey)
	first := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	oldest := now
	if entries := first.Val(); len(entries) > 0 {
		oldest = time.UnixMicro(int64(entries[0].Score))
	}
	return zcard.Val(), oldest, nil
}

func (l *RedisRateLimiter) record(ctx context.Context, key string, limit Limit, now time.Time) error {
	member := uuid.NewString()

	pipe := l.client.Pipeline()
	for _, w := range limit.windows() {
		if w.limit <= 0 {
			continue
		}
		redisKey := l.getKey(key, w.duration)
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMicro()), Member: member})
		pipe.Expire(ctx, redisKey, w.duration+time.Minute)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// Reset clears every window for key.
func (l *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	pattern := fmt.Sprintf("%s:%s:*", l.prefix, key)

	iter := l.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := l.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}
	return nil
}

func (l *RedisRateLimiter) getKey(identifier string, window time.Duration) string {
	return fmt.Sprintf("%s:%s:%s", l.prefix, identifier, window.String())
}
