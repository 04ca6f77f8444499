// Package ratelimit provides the sliding-window limiter consulted by the
// document engine for expensive read classes. The default implementation is
// process-local; a distributed deployment would back Limiter with a shared
// counter store.
package ratelimit

import (
	"sync"
	"time"
)

// Key identifies one counted stream: an actor and an operation class.
type Key struct {
	ActorID string
	Class   string
}

// Limiter decides whether one more request is admitted for a key.
type Limiter interface {
	Allow(key Key, now time.Time) bool
}

// Config bounds one operation class.
type Config struct {
	// Window is the sliding interval over which requests are counted.
	Window time.Duration
	// Capacity is the maximum number of requests admitted per window.
	Capacity int
}

// DefaultSearchConfig matches the documented search quota: 20 requests per
// 60-second window.
func DefaultSearchConfig() Config {
	return Config{Window: time.Minute, Capacity: 20}
}

// SlidingWindow counts request timestamps per key and prunes expired ones
// lazily on access, so no background goroutine is needed.
type SlidingWindow struct {
	cfg Config

	mu      sync.Mutex
	windows map[Key][]time.Time
}

// NewSlidingWindow builds a limiter for one operation class configuration.
func NewSlidingWindow(cfg Config) *SlidingWindow {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 20
	}
	return &SlidingWindow{
		cfg:     cfg,
		windows: make(map[Key][]time.Time),
	}
}

var _ Limiter = (*SlidingWindow)(nil)

// Allow records the request and reports whether it fits inside the window.
// A rejected request is not recorded, so a steady over-limit caller recovers
// as soon as old admissions age out.
func (l *SlidingWindow) Allow(key Key, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.cfg.Window)
	kept := l.windows[key][:0]
	for _, ts := range l.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.cfg.Capacity {
		l.windows[key] = kept
		return false
	}
	l.windows[key] = append(kept, now)
	return true
}

// Len reports the number of live admissions for a key. Intended for tests.
func (l *SlidingWindow) Len(key Key) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows[key])
}
