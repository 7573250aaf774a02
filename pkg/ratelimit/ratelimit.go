package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result reports whether a request is allowed and how long until the
// current window resets.
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter is a fixed-window rate limit policy keyed by an arbitrary string,
// usually the client ip.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type window struct {
	count int
	reset time.Time
}

// MemoryLimiter keeps its counters in process memory. Counters are not
// shared between instances.
type MemoryLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(l.period)}
		l.windows[key] = w
	}
	w.count++

	return result(w.count, l.limit, w.reset.Sub(now)), nil
}

// sweep drops expired windows at most once per period.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.period {
		return
	}
	for k, w := range l.windows {
		if !now.Before(w.reset) {
			delete(l.windows, k)
		}
	}
	l.lastSweep = now
}

// Counter is a shared keyed counter whose key expires after window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// CounterLimiter keeps counters in a shared store so every instance sees
// the same window.
type CounterLimiter struct {
	counter Counter
	prefix  string
	limit   int
	period  time.Duration
}

func NewCounterLimiter(counter Counter, prefix string, limit int, period time.Duration) *CounterLimiter {
	return &CounterLimiter{counter: counter, prefix: prefix, limit: limit, period: period}
}

func (l *CounterLimiter) Allow(ctx context.Context, key string) (Result, error) {
	n, ttl, err := l.counter.Incr(ctx, l.prefix+key, l.period)
	if err != nil {
		return Result{}, err
	}
	return result(int(n), l.limit, ttl), nil
}

func result(count, limit int, resetIn time.Duration) Result {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count <= limit, Remaining: remaining, ResetIn: resetIn}
}
