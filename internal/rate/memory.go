package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a sliding-window counter held in process memory.
// Correct for a single instance; counts are not shared across
// replicas. Entries for idle keys are pruned by a background sweep.
type MemoryLimiter struct {
	config  Config
	mu      sync.Mutex
	windows map[string][]time.Time
	stopC   chan struct{}
	now     func() time.Time
}

// NewMemoryLimiter starts a limiter with the given ceiling and a
// cleanup goroutine. A non-positive window falls back to one minute so
// the sweep ticker always has a valid interval. Call Stop when
// discarding it.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	if cfg.Per <= 0 {
		cfg.Per = time.Minute
	}
	l := &MemoryLimiter{
		config:  cfg,
		windows: make(map[string][]time.Time),
		stopC:   make(chan struct{}),
		now:     time.Now,
	}
	go l.sweep()
	return l
}

// Allow reports whether key has budget left in the trailing window and
// records the request when it does.
func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	now := l.now()
	cutoff := now.Add(-l.config.Per)

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.windows[key]
	kept := window[:0]
	for _, at := range window {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.config.Calls {
		l.windows[key] = kept
		return false
	}

	l.windows[key] = append(kept, now)
	return true
}

// Stop terminates the cleanup goroutine.
func (l *MemoryLimiter) Stop() {
	close(l.stopC)
}

func (l *MemoryLimiter) sweep() {
	ticker := time.NewTicker(l.config.Per * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.dropIdle()
		case <-l.stopC:
			return
		}
	}
}

func (l *MemoryLimiter) dropIdle() {
	cutoff := l.now().Add(-l.config.Per)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, window := range l.windows {
		if len(window) == 0 || !window[len(window)-1].After(cutoff) {
			delete(l.windows, key)
		}
	}
}
