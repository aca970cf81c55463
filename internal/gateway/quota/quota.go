// Package quota enforces per-client, per-tier usage limits over fixed
// windows. Check-then-increment is a single atomic step under a sharded
// lock so two concurrent requests from the same client cannot both slip
// past the boundary.
package quota

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

type counter struct {
	count       int
	windowStart time.Time
}

type shard struct {
	mu       sync.Mutex
	counters map[string]*counter
}

// Manager tracks usage counters keyed by (clientKey, tierID). Each
// tier's limit and window are independent: exhausting one tier leaves
// the others untouched.
type Manager struct {
	shards [shardCount]*shard
	now    func() time.Time
}

func New() *Manager {
	return NewWithClock(time.Now)
}

// NewWithClock builds a Manager with an injected clock, for tests that
// need to advance the window.
func NewWithClock(now func() time.Time) *Manager {
	m := &Manager{now: now}
	for i := range m.shards {
		m.shards[i] = &shard{counters: make(map[string]*counter)}
	}
	return m
}

// TryConsume reports whether the request is admitted and, if so,
// consumes one unit of the (clientKey, tierID) window. Owner callers
// always pass and never mutate a counter. A denial mutates nothing.
func (m *Manager) TryConsume(clientKey, tierID string, limit int, window time.Duration, owner bool) bool {
	if owner {
		return true
	}
	if limit <= 0 || window <= 0 {
		return true
	}

	key := clientKey + "|" + tierID
	s := m.shards[shardFor(key)]

	s.mu.Lock()
	defer s.mu.Unlock()

	now := m.now()
	c, ok := s.counters[key]
	if !ok {
		c = &counter{windowStart: now}
		s.counters[key] = c
	}

	if now.Sub(c.windowStart) >= window {
		c.count = 0
		c.windowStart = now
	}

	if c.count >= limit {
		return false
	}

	c.count++
	return true
}

// Remaining reports how many units are left in the current window,
// without consuming. Used for diagnostics headers.
func (m *Manager) Remaining(clientKey, tierID string, limit int, window time.Duration) int {
	key := clientKey + "|" + tierID
	s := m.shards[shardFor(key)]

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok {
		return limit
	}
	if m.now().Sub(c.windowStart) >= window {
		return limit
	}
	remaining := limit - c.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % shardCount
}
