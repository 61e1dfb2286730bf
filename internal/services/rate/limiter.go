package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// limitWindow is one sliding window: a burst of more than limit actions
// inside span blocks until the window key expires.
type limitWindow struct {
	keyPrefix string
	span      time.Duration
	limit     int64
}

func (w limitWindow) key(userID int64) string {
	return w.keyPrefix + strconv.FormatInt(userID, 10)
}

// Limiter throttles swipe bursts across a table of redis-backed windows.
// Both windows must admit the action; the retry hint is the longest wait
// among the windows that blocked.
type Limiter struct {
	store   WindowStore
	windows []limitWindow
}

// NewLimiter builds the two-window interaction limiter. A non-positive
// limit disables that window.
func NewLimiter(store WindowStore, perMinute, per10Sec int) *Limiter {
	windows := make([]limitWindow, 0, 2)
	if perMinute > 0 {
		windows = append(windows, limitWindow{
			keyPrefix: "rate:interactions:min:",
			span:      time.Minute,
			limit:     int64(perMinute),
		})
	}
	if per10Sec > 0 {
		windows = append(windows, limitWindow{
			keyPrefix: "rate:interactions:10s:",
			span:      10 * time.Second,
			limit:     int64(per10Sec),
		})
	}

	return &Limiter{store: store, windows: windows}
}

// AllowInteraction counts the action against every window. Each window is
// always incremented, even when an earlier one already blocked: a client
// hammering past the limit keeps the window warm instead of sneaking
// through the moment one key expires.
func (l *Limiter) AllowInteraction(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	var retryAfterSec int64
	for _, w := range l.windows {
		count, ttl, err := l.store.IncrementWindow(ctx, w.key(userID), w.span)
		if err != nil {
			return 0, false, err
		}
		if count > w.limit {
			if wait := ceilSeconds(ttl); wait > retryAfterSec {
				retryAfterSec = wait
			}
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

// RetryAfterInteraction reports the current wait without consuming an
// attempt.
func (l *Limiter) RetryAfterInteraction(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	var retryAfterSec int64
	for _, w := range l.windows {
		count, ttl, err := l.store.WindowState(ctx, w.key(userID))
		if err != nil {
			return 0, err
		}
		if count >= w.limit {
			if wait := ceilSeconds(ttl); wait > retryAfterSec {
				retryAfterSec = wait
			}
		}
	}

	return retryAfterSec, nil
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
