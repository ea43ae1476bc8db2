package ratelimit_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raysh454/a11yscan/internal/ratelimit"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLimiter(clock *fakeClock) *ratelimit.Limiter {
	l := ratelimit.New(ratelimit.DefaultConfig())
	l.Now = clock.Now
	return l
}

func TestLimiter_EleventhRequestDenied(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l := newLimiter(clock)

	for i := 1; i <= 10; i++ {
		if !l.Allow("203.0.113.7") {
			t.Fatalf("request %d should be allowed", i)
		}
		clock.Advance(time.Second)
	}
	if l.Allow("203.0.113.7") {
		t.Fatal("11th request within the window should be denied")
	}
}

func TestLimiter_DeniedRequestsDoNotExtendWindow(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l := newLimiter(clock)

	for i := 0; i < 10; i++ {
		l.Allow("a")
	}
	for i := 0; i < 5; i++ {
		if l.Allow("a") {
			t.Fatal("expected denial while at the ceiling")
		}
	}
	if got := l.RetryAfter("a"); got != 60*time.Second {
		t.Errorf("expected retry after 60s, got %v", got)
	}

	clock.Advance(60*time.Second + time.Millisecond)
	if !l.Allow("a") {
		t.Fatal("first request after the window reset should be allowed")
	}
	if got := l.RetryAfter("a"); got != 0 {
		t.Errorf("expected no retry-after once the window reset, got %v", got)
	}
}

func TestLimiter_WindowBoundaryIsInclusive(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l := newLimiter(clock)

	for i := 0; i < 10; i++ {
		l.Allow("a")
	}
	// now == resetAt is still inside the window
	clock.Advance(60 * time.Second)
	if l.Allow("a") {
		t.Fatal("request exactly at resetAt should still be limited")
	}
}

func TestLimiter_IdentitiesAreIndependent(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l := newLimiter(clock)

	for i := 0; i < 10; i++ {
		l.Allow("a")
	}
	if l.Allow("a") {
		t.Fatal("a should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("b should not be affected by a")
	}
}

func TestLimiter_SweepRemovesExpired(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l := newLimiter(clock)

	l.Allow("old")
	clock.Advance(30 * time.Second)
	l.Allow("fresh")
	clock.Advance(31 * time.Second)

	if removed := l.Sweep(); removed != 1 {
		t.Fatalf("expected 1 record swept, got %d", removed)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 record left, got %d", l.Len())
	}
}

func TestLimiter_ConcurrentAllowNeverExceedsLimit(t *testing.T) {
	t.Parallel()
	l := ratelimit.New(ratelimit.Config{Limit: 10, Window: time.Hour})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 10 {
		t.Fatalf("expected exactly 10 admissions, got %d", allowed)
	}
}

func TestLimiter_RunStopsOnCancel(t *testing.T) {
	t.Parallel()
	l := ratelimit.New(ratelimit.Config{SweepInterval: time.Millisecond})
	for i := 0; i < 3; i++ {
		l.Allow(fmt.Sprintf("id-%d", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
