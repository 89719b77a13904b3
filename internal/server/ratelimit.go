package server

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window in-memory limiter keyed by client ip. Good
// enough for a single-process deployment; the webhook path is never limited.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts map[string]*windowCount
}

type windowCount struct {
	start time.Time
	count int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		counts: make(map[string]*windowCount),
	}
}

func (l *rateLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.counts[key]
	if !ok || now.Sub(entry.start) >= l.window {
		l.counts[key] = &windowCount{start: now, count: 1}
		l.pruneLocked(now)
		return true
	}
	if entry.count >= l.limit {
		return false
	}
	entry.count++
	return true
}

func (l *rateLimiter) pruneLocked(now time.Time) {
	if len(l.counts) < 1024 {
		return
	}
	for key, entry := range l.counts {
		if now.Sub(entry.start) >= l.window {
			delete(l.counts, key)
		}
	}
}
