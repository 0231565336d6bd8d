package rate

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestMemoryLimiter(cfg Config) (*MemoryLimiter, *time.Time) {
	l := NewMemoryLimiter(cfg)
	now := time.Now()
	l.now = func() time.Time { return now }
	return l, &now
}

func TestMemoryLimiterCeiling(t *testing.T) {
	l, now := newTestMemoryLimiter(Config{Calls: 2, Per: 60 * time.Second})
	defer l.Stop()
	ctx := context.Background()

	if !l.Allow(ctx, "1.2.3.4") || !l.Allow(ctx, "1.2.3.4") {
		t.Fatal("expected first two calls to be admitted")
	}
	if l.Allow(ctx, "1.2.3.4") {
		t.Fatal("expected third call inside the window to be rejected")
	}

	// A different key has its own budget.
	if !l.Allow(ctx, "5.6.7.8") {
		t.Fatal("expected a fresh key to be admitted")
	}

	// After the window elapses the key is admitted again.
	*now = now.Add(61 * time.Second)
	if !l.Allow(ctx, "1.2.3.4") {
		t.Fatal("expected admission after the window elapsed")
	}
}

func TestMemoryLimiterSlidingWindow(t *testing.T) {
	l, now := newTestMemoryLimiter(Config{Calls: 2, Per: 60 * time.Second})
	defer l.Stop()
	ctx := context.Background()

	if !l.Allow(ctx, "k") {
		t.Fatal("expected admission")
	}
	*now = now.Add(40 * time.Second)
	if !l.Allow(ctx, "k") {
		t.Fatal("expected admission")
	}

	// 50s in: both hits still inside the trailing window.
	*now = now.Add(10 * time.Second)
	if l.Allow(ctx, "k") {
		t.Fatal("expected rejection while both hits are in the window")
	}

	// 65s after the first hit: it has slid out, one slot free.
	*now = now.Add(15 * time.Second)
	if !l.Allow(ctx, "k") {
		t.Fatal("expected admission after the oldest hit slid out")
	}
}

func TestMemoryLimiterConcurrentCallers(t *testing.T) {
	l := NewMemoryLimiter(Config{Calls: 50, Per: time.Minute})
	defer l.Stop()
	ctx := context.Background()

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)

	admitted := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			admitted <- l.Allow(ctx, "shared")
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	if count != 50 {
		t.Fatalf("expected exactly 50 admissions, got %d", count)
	}
}

func TestMemoryLimiterZeroWindow(t *testing.T) {
	// A zero-value Config must not panic the sweep ticker; the window
	// falls back to a minute.
	l := NewMemoryLimiter(Config{Calls: 1})
	defer l.Stop()

	if l.config.Per != time.Minute {
		t.Fatalf("expected the window to default to a minute, got %s", l.config.Per)
	}
	if !l.Allow(context.Background(), "k") {
		t.Fatal("expected admission")
	}
	if l.Allow(context.Background(), "k") {
		t.Fatal("expected rejection after the budget is spent")
	}
}

func TestMemoryLimiterDropIdle(t *testing.T) {
	l, now := newTestMemoryLimiter(Config{Calls: 1, Per: time.Second})
	defer l.Stop()

	l.Allow(context.Background(), "idle")
	*now = now.Add(5 * time.Second)
	l.dropIdle()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.windows) != 0 {
		t.Fatalf("expected idle windows to be pruned, %d remain", len(l.windows))
	}
}
