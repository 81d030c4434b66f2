// Package ratelimit tracks per-identifier operation counts in fixed time
// windows. The (N+1)th operation inside one window is rejected; a new
// window starts the count over. Rejection never mutates cached results.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is returned when an identifier exhausts its window.
var ErrRateLimited = errors.New("rate limit exceeded")

type window struct {
	start time.Time
	count int
}

// Limiter is a fixed-window per-identifier rate limiter. It is safe for
// concurrent use.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	windows map[string]*window
	now     func() time.Time
}

// New creates a limiter allowing limit operations per identifier per
// period.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records one operation for id, rejecting it when the current window
// is exhausted.
func (l *Limiter) Allow(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[id]
	if !ok || now.Sub(w.start) >= l.period {
		l.windows[id] = &window{start: now, count: 1}
		return nil
	}
	if w.count >= l.limit {
		return fmt.Errorf("%w: %d operations for %q within %s", ErrRateLimited, w.count, id, l.period)
	}
	w.count++
	return nil
}
