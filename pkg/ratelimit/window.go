// Package ratelimit implements client-side request throttling for
// rate-limited data APIs. Requests are gated by a sliding window of
// recent dispatch timestamps: at most maxRequests may leave the client
// within any rolling window interval.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for limiter activity.
var (
	throttlesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connector_rate_limit_throttles_total",
		Help: "Total number of requests that had to wait for a free window slot",
	}, []string{"limiter"})

	waitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "connector_rate_limit_wait_seconds",
		Help:    "Time spent waiting for a free window slot",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"limiter"})
)

// safetyMargin is added to every computed wait so that the slot being
// waited on is strictly outside the window when the caller wakes up.
const safetyMargin = 100 * time.Millisecond

// ErrAcquireCancelled is returned when the context is cancelled or times
// out while waiting for a free window slot.
var ErrAcquireCancelled = errors.New("rate limit acquire cancelled")

// Limiter gates outgoing requests against a provider's rate limit.
// Acquire blocks until one request may be dispatched, or fails with
// ErrAcquireCancelled when ctx ends first. It never fails for a full
// window alone.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// SlidingWindow is an in-process Limiter permitting at most maxRequests
// dispatches within any rolling window. Intended as one instance per
// connector; safe for concurrent use from multiple goroutines.
//
// Slots free up incrementally as old timestamps fall out of the window.
// Stale timestamps are pruned lazily on each Acquire, never eagerly.
type SlidingWindow struct {
	maxRequests int
	window      time.Duration

	mu         sync.Mutex
	timestamps []time.Time // chronological, pruned from the front

	// now is replaceable in tests.
	now    func() time.Time
	logger zerolog.Logger
}

// NewSlidingWindow creates a limiter allowing maxRequests per window.
// Non-positive arguments fall back to 1 request per second.
func NewSlidingWindow(maxRequests int, window time.Duration) *SlidingWindow {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Second
	}

	return &SlidingWindow{
		maxRequests: maxRequests,
		window:      window,
		timestamps:  make([]time.Time, 0, maxRequests),
		now:         time.Now,
		logger:      log.With().Str("component", "ratelimit").Logger(),
	}
}

// Acquire blocks until a request may be dispatched under the window.
// Returns nil (possibly after sleeping) once the dispatch timestamp has
// been recorded, or ErrAcquireCancelled when ctx ends while waiting.
func (w *SlidingWindow) Acquire(ctx context.Context) error {
	var waited time.Duration

	for {
		w.mu.Lock()
		now := w.now()
		w.prune(now)

		if len(w.timestamps) < w.maxRequests {
			w.timestamps = append(w.timestamps, now)
			w.mu.Unlock()

			if waited > 0 {
				waitSeconds.WithLabelValues("memory").Observe(waited.Seconds())
			}
			return nil
		}

		oldest := w.timestamps[0]
		inWindow := len(w.timestamps)
		w.mu.Unlock()

		sleep := w.window - now.Sub(oldest) + safetyMargin
		if sleep < safetyMargin {
			sleep = safetyMargin
		}

		throttlesTotal.WithLabelValues("memory").Inc()
		w.logger.Debug().
			Int("in_window", inWindow).
			Dur("wait", sleep).
			Msg("Window saturated, waiting for a free slot")

		if err := sleepContext(ctx, sleep); err != nil {
			return err
		}
		waited += sleep
	}
}

// prune discards timestamps older than one window relative to now.
// Caller must hold w.mu.
func (w *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.timestamps) && !w.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.timestamps = w.timestamps[i:]
	}
}

// InWindow reports how many dispatches are currently inside the window.
func (w *SlidingWindow) InWindow() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return len(w.timestamps)
}

// sleepContext sleeps for d, aborting with ErrAcquireCancelled when ctx
// ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrAcquireCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}
