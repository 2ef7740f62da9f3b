// Package ratelimit counts events per key over a sliding window.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Limit allows at most MaxRequests events per key within Window.
// Zero values mean no limit.
type Limit struct {
	MaxRequests int           `yaml:"max_requests" json:"max_requests" validate:"min=0"`
	Window      time.Duration `yaml:"window" json:"window" validate:"min=0"`
}

// Enabled reports whether the limit restricts anything.
func (l Limit) Enabled() bool {
	return l.MaxRequests > 0 && l.Window > 0
}

// CheckResult is the outcome of a check.
type CheckResult struct {
	Exceeded bool
	Current  int
	Limit    int
	Reason   string
}

// Limiter tracks recent event times per key in memory. Keys are stored as
// truncated SHA-256 digests so raw identifiers such as phone numbers are
// never retained. Safe for concurrent use.
type Limiter struct {
	limit Limit
	now   func() time.Time

	mu     sync.Mutex
	recent map[string][]time.Time
}

// New creates a Limiter. A disabled limit admits every event.
func New(limit Limit) *Limiter {
	return &Limiter{limit: limit, now: time.Now, recent: make(map[string][]time.Time)}
}

// WithClock replaces time.Now, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow records an event for key if it is within the limit.
func (l *Limiter) Allow(key string) CheckResult {
	if !l.limit.Enabled() {
		return CheckResult{}
	}
	k := hashKey(key)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := prune(l.recent[k], now.Add(-l.limit.Window))
	if len(recent) >= l.limit.MaxRequests {
		l.recent[k] = recent
		reason := fmt.Sprintf("rate limit exceeded: %d/%d in %s window",
			len(recent), l.limit.MaxRequests, l.limit.Window)
		return CheckResult{
			Exceeded: true,
			Current:  len(recent),
			Limit:    l.limit.MaxRequests,
			Reason:   reason,
		}
	}
	l.recent[k] = append(recent, now)
	return CheckResult{Current: len(recent) + 1, Limit: l.limit.MaxRequests}
}

// Prune drops keys with no events inside the window and returns how many remain.
func (l *Limiter) Prune() int {
	if !l.limit.Enabled() {
		return 0
	}
	cutoff := l.now().Add(-l.limit.Window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, ts := range l.recent {
		if kept := prune(ts, cutoff); len(kept) == 0 {
			delete(l.recent, k)
		} else {
			l.recent[k] = kept
		}
	}
	return len(l.recent)
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}
