// Package ratelimit throttles the unauthenticated credential endpoints.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int) Decision
}

// FixedWindow counts hits per key inside a fixed window, in process memory.
type FixedWindow struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	hits   map[string]window
}

type window struct {
	count   int
	resetAt time.Time
}

func NewFixedWindow(d time.Duration) *FixedWindow {
	if d <= 0 {
		d = time.Minute
	}
	return &FixedWindow{
		window: d,
		now:    time.Now,
		hits:   make(map[string]window),
	}
}

func (l *FixedWindow) Allow(_ context.Context, key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	now := l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, w := range l.hits {
		if now.After(w.resetAt) {
			delete(l.hits, k)
		}
	}
	cur, ok := l.hits[key]
	if !ok {
		cur = window{resetAt: now.Add(l.window)}
	}
	cur.count++
	l.hits[key] = cur

	return decide(cur.count, limit, cur.resetAt)
}

func decide(count, limit int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit,
		Count:     count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
