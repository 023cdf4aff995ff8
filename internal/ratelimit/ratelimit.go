package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// HostLimiter spaces out requests to the same host. Each wait picks a delay between
// minDelay and maxDelay measured from the previous request to that host.
type HostLimiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	maxDelay time.Duration
	next     map[string]time.Time
	now      func() time.Time
}

func NewHostLimiter(minDelay, maxDelay time.Duration) *HostLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &HostLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		next:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Enabled reports whether the limiter delays anything at all.
func (l *HostLimiter) Enabled() bool {
	return l != nil && l.maxDelay > 0
}

// Wait blocks until host may be contacted again or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if !l.Enabled() {
		return nil
	}

	wait := l.reserve(host)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reserve claims the next slot for host and returns how long the caller must wait for it.
func (l *HostLimiter) reserve(host string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	slot := now
	if next, ok := l.next[host]; ok && next.After(now) {
		slot = next
	}
	l.next[host] = slot.Add(l.delay())
	return slot.Sub(now)
}

func (l *HostLimiter) delay() time.Duration {
	if l.minDelay == l.maxDelay {
		return l.minDelay
	}
	return l.minDelay + time.Duration(rand.Int63n(int64(l.maxDelay-l.minDelay)))
}
