// Package budget enforces the spend controls around remote classification:
// a fixed-window call rate limiter and a token/dollar cost ledger. Both
// persist their counters through the key-value store so budgets measured
// in wall-clock windows survive process restarts.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/penfold-notes/penfold/internal/service"
)

// Default call limits. Deliberately conservative to bound worst-case spend.
const (
	DefaultPerMinute = 5
	DefaultPerHour   = 50
	DefaultPerDay    = 200
)

// RateLimitConfig holds the per-window call limits.
type RateLimitConfig struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// rateWindow is one fixed window: the counter resets to zero only once the
// whole window has elapsed, as opposed to a sliding log of timestamps.
type rateWindow struct {
	name        string
	length      time.Duration
	limit       int
	count       int
	windowStart time.Time
}

func (w *rateWindow) expired(now time.Time) bool {
	return now.Sub(w.windowStart) >= w.length
}

// RateLimiter gates remote calls behind minute, hour, and day windows.
// All methods are safe for concurrent use; callers still must not run two
// classifications against shared engine state without serializing.
type RateLimiter struct {
	store   service.KVStore
	logger  *slog.Logger
	now     func() time.Time
	windows []*rateWindow
	mu      sync.Mutex
}

// NewRateLimiter creates a rate limiter and loads any persisted window
// state. A missing or unreadable store entry starts the window fresh
// rather than failing construction.
func NewRateLimiter(ctx context.Context, store service.KVStore, cfg RateLimitConfig, logger *slog.Logger) *RateLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = DefaultPerMinute
	}
	if cfg.PerHour <= 0 {
		cfg.PerHour = DefaultPerHour
	}
	if cfg.PerDay <= 0 {
		cfg.PerDay = DefaultPerDay
	}
	if logger == nil {
		logger = slog.Default()
	}

	rl := &RateLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
		windows: []*rateWindow{
			{name: "minute", length: time.Minute, limit: cfg.PerMinute},
			{name: "hour", length: time.Hour, limit: cfg.PerHour},
			{name: "day", length: 24 * time.Hour, limit: cfg.PerDay},
		},
	}

	start := rl.now()
	for _, w := range rl.windows {
		w.windowStart = start
		rl.loadWindow(ctx, w)
	}
	return rl
}

// CanProceed reports whether a remote call is allowed right now. True only
// when every window is under its limit after lazy reset.
func (rl *RateLimiter) CanProceed(ctx context.Context) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.resetExpired(ctx)

	for _, w := range rl.windows {
		if w.count >= w.limit {
			rl.logger.Debug("rate window at limit",
				"window", w.name,
				"count", w.count,
				"limit", w.limit)
			return false
		}
	}
	return true
}

// RecordSuccess counts one remote call against every window. Call it only
// after a confirmed successful remote response, so a failing call never
// consumes budget.
func (rl *RateLimiter) RecordSuccess(ctx context.Context) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.resetExpired(ctx)

	for _, w := range rl.windows {
		w.count++
		rl.persistWindow(ctx, w)
	}
}

// Remaining returns how many calls each window still allows, keyed by
// window name. Used by the budget status command.
func (rl *RateLimiter) Remaining(ctx context.Context) map[string]int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.resetExpired(ctx)

	remaining := make(map[string]int, len(rl.windows))
	for _, w := range rl.windows {
		left := w.limit - w.count
		if left < 0 {
			left = 0
		}
		remaining[w.name] = left
	}
	return remaining
}

// resetExpired zeroes any window whose length has fully elapsed. The
// window start only ever advances forward. Caller holds the lock.
func (rl *RateLimiter) resetExpired(ctx context.Context) {
	now := rl.now()
	for _, w := range rl.windows {
		if w.expired(now) {
			w.count = 0
			w.windowStart = now
			rl.persistWindow(ctx, w)
		}
	}
}

func windowKey(name, metric string) string {
	return fmt.Sprintf("ratelimit.%s.%s", name, metric)
}

func (rl *RateLimiter) loadWindow(ctx context.Context, w *rateWindow) {
	if rl.store == nil {
		return
	}

	if raw, ok, err := rl.store.Get(ctx, windowKey(w.name, "count")); err == nil && ok {
		if count, convErr := strconv.Atoi(raw); convErr == nil && count >= 0 {
			w.count = count
		}
	} else if err != nil {
		rl.logger.Warn("failed to load rate window count", "window", w.name, "error", err)
	}

	if raw, ok, err := rl.store.Get(ctx, windowKey(w.name, "window_start")); err == nil && ok {
		if start, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
			w.windowStart = start
		}
	} else if err != nil {
		rl.logger.Warn("failed to load rate window start", "window", w.name, "error", err)
	}
}

// persistWindow writes window state best-effort. A store failure degrades
// durability, not correctness, so it is logged and swallowed.
func (rl *RateLimiter) persistWindow(ctx context.Context, w *rateWindow) {
	if rl.store == nil {
		return
	}

	if err := rl.store.Set(ctx, windowKey(w.name, "count"), strconv.Itoa(w.count)); err != nil {
		rl.logger.Warn("failed to persist rate window count", "window", w.name, "error", err)
	}
	if err := rl.store.Set(ctx, windowKey(w.name, "window_start"), w.windowStart.Format(time.RFC3339Nano)); err != nil {
		rl.logger.Warn("failed to persist rate window start", "window", w.name, "error", err)
	}
}
