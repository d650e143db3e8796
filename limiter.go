package fitpress

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a per-IP sliding window limiter. It guards admin login
// attempts and manual generation requests.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
}

// NewRateLimiter creates a RateLimiter that allows max attempts per window.
// Expired entries are swept until ctx is done.
func NewRateLimiter(ctx context.Context, max int, window time.Duration) *RateLimiter {
	l := &RateLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
	}
	go l.cleanup(ctx)
	return l
}

func (l *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip, hits := range l.attempts {
			if kept := prune(hits, cutoff); len(kept) == 0 {
				delete(l.attempts, ip)
			} else {
				l.attempts[ip] = kept
			}
		}
		l.mu.Unlock()
	}
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Allow checks the limit and records the attempt when allowed.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.attempts[ip], time.Now().Add(-l.window))
	if len(kept) >= l.max {
		l.attempts[ip] = kept
		return false
	}
	l.attempts[ip] = append(kept, time.Now())
	return true
}

// Check reports whether ip is under the limit without recording anything.
// Pair it with Record to count only failed logins.
func (l *RateLimiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.attempts[ip], time.Now().Add(-l.window))
	l.attempts[ip] = kept
	return len(kept) < l.max
}

// Record registers an attempt for ip.
func (l *RateLimiter) Record(ip string) {
	l.mu.Lock()
	l.attempts[ip] = append(l.attempts[ip], time.Now())
	l.mu.Unlock()
}

// Reset forgets ip, e.g. after a successful login.
func (l *RateLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.attempts, ip)
	l.mu.Unlock()
}

// RetryAfter returns how long until ip may try again; zero when it may
// already.
func (l *RateLimiter) RetryAfter(ip string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	kept := prune(l.attempts[ip], now.Add(-l.window))
	l.attempts[ip] = kept
	if len(kept) < l.max {
		return 0
	}
	return kept[len(kept)-l.max].Add(l.window).Sub(now)
}
