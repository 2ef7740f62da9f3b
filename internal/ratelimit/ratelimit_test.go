package ratelimit

import (
	"sync"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestDisabledLimitAdmitsAll(t *testing.T) {
	l := New(Limit{})
	for i := 0; i < 100; i++ {
		if l.Allow("+1555").Exceeded {
			t.Fatal("disabled limit must never be exceeded")
		}
	}
	if (Limit{MaxRequests: 1}).Enabled() || (Limit{Window: time.Hour}).Enabled() {
		t.Error("half-configured limit must be disabled")
	}
}

func TestSlidingWindow(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 12, 20, 0, 0, 0, time.UTC)}
	l := New(Limit{MaxRequests: 2, Window: 10 * time.Minute}).WithClock(c.now)

	if l.Allow("a").Exceeded || l.Allow("a").Exceeded {
		t.Fatal("first two events should pass")
	}
	res := l.Allow("a")
	if !res.Exceeded || res.Current != 2 || res.Limit != 2 {
		t.Fatalf("third event = %+v, want exceeded 2/2", res)
	}
	if l.Allow("b").Exceeded {
		t.Error("keys must be independent")
	}

	c.advance(10*time.Minute + time.Second)
	if l.Allow("a").Exceeded {
		t.Error("events outside the window should be forgotten")
	}
}

func TestPrune(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 12, 20, 0, 0, 0, time.UTC)}
	l := New(Limit{MaxRequests: 5, Window: time.Minute}).WithClock(c.now)
	l.Allow("a")
	c.advance(30 * time.Second)
	l.Allow("b")
	c.advance(45 * time.Second)

	if n := l.Prune(); n != 1 {
		t.Errorf("remaining keys = %d, want 1", n)
	}
}

func TestKeysAreHashed(t *testing.T) {
	l := New(Limit{MaxRequests: 1, Window: time.Hour})
	l.Allow("+15550001111")
	for k := range l.recent {
		if k == "+15550001111" {
			t.Error("raw key retained")
		}
	}
}

func TestConcurrentAllow(t *testing.T) {
	l := New(Limit{MaxRequests: 10, Window: time.Hour})
	var wg sync.WaitGroup
	var mu sync.Mutex
	passed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !l.Allow("k").Exceeded {
				mu.Lock()
				passed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if passed != 10 {
		t.Errorf("passed = %d, want 10", passed)
	}
}
