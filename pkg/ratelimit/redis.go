package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedisWindow is a Limiter whose sliding window lives in a Redis sorted
// set (score = dispatch time in unix milliseconds, member = random ID),
// so several connector processes can share one provider quota.
//
// The window key expires one window after the last dispatch, keeping
// idle limiters from leaking keys.
type RedisWindow struct {
	client      *redis.Client
	key         string
	maxRequests int
	window      time.Duration

	now    func() time.Time
	logger zerolog.Logger
}

// NewRedisWindow creates a shared limiter over the given Redis key.
// Non-positive arguments fall back to 1 request per second.
func NewRedisWindow(client *redis.Client, key string, maxRequests int, window time.Duration) *RedisWindow {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Second
	}

	return &RedisWindow{
		client:      client,
		key:         key,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		logger:      log.With().Str("component", "ratelimit").Str("key", key).Logger(),
	}
}

// Acquire blocks until a request may be dispatched under the shared
// window. Concurrent acquirers race on the add; a loser removes its own
// member again and waits, so the combined dispatch rate stays under the
// limit.
func (w *RedisWindow) Acquire(ctx context.Context) error {
	var waited time.Duration

	for {
		now := w.now()
		cutoff := strconv.FormatInt(now.Add(-w.window).UnixMilli(), 10)

		member := uuid.NewString()

		pipe := w.client.Pipeline()
		pipe.ZRemRangeByScore(ctx, w.key, "0", cutoff)
		add := pipe.ZAdd(ctx, w.key, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: member,
		})
		count := pipe.ZCard(ctx, w.key)
		pipe.Expire(ctx, w.key, w.window+time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("record dispatch for key %s: %w", w.key, err)
		}
		if err := add.Err(); err != nil {
			return fmt.Errorf("add dispatch to key %s: %w", w.key, err)
		}

		if count.Val() <= int64(w.maxRequests) {
			if waited > 0 {
				waitSeconds.WithLabelValues("redis").Observe(waited.Seconds())
			}
			return nil
		}

		// Over the limit: withdraw our member and wait for the oldest
		// one to leave the window.
		if err := w.client.ZRem(ctx, w.key, member).Err(); err != nil {
			return fmt.Errorf("withdraw dispatch from key %s: %w", w.key, err)
		}

		sleep := safetyMargin
		oldest, err := w.client.ZRangeWithScores(ctx, w.key, 0, 0).Result()
		if err != nil {
			return fmt.Errorf("inspect window for key %s: %w", w.key, err)
		}
		if len(oldest) > 0 {
			oldestAt := time.UnixMilli(int64(oldest[0].Score))
			sleep = w.window - now.Sub(oldestAt) + safetyMargin
			if sleep < safetyMargin {
				sleep = safetyMargin
			}
		}

		throttlesTotal.WithLabelValues("redis").Inc()
		w.logger.Debug().
			Int64("in_window", count.Val()-1).
			Dur("wait", sleep).
			Msg("Shared window saturated, waiting for a free slot")

		if err := sleepContext(ctx, sleep); err != nil {
			return err
		}
		waited += sleep
	}
}
