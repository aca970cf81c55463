package quota

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConsumeUpToLimit(t *testing.T) {
	m := New()

	for i := 0; i < 3; i++ {
		require.True(t, m.TryConsume("10.0.0.1", "fast", 3, time.Hour, false), "request %d", i+1)
	}
	require.False(t, m.TryConsume("10.0.0.1", "fast", 3, time.Hour, false))
}

func TestDenialDoesNotMutate(t *testing.T) {
	m := New()

	require.True(t, m.TryConsume("c", "fast", 1, time.Hour, false))
	for i := 0; i < 5; i++ {
		require.False(t, m.TryConsume("c", "fast", 1, time.Hour, false))
	}
	require.Equal(t, 0, m.Remaining("c", "fast", 1, time.Hour))
}

func TestWindowReset(t *testing.T) {
	now := time.Unix(1700000000, 0)
	m := NewWithClock(func() time.Time { return now })

	require.True(t, m.TryConsume("10.0.0.1", "fast", 1, time.Hour, false))
	require.False(t, m.TryConsume("10.0.0.1", "fast", 1, time.Hour, false))

	now = now.Add(time.Hour + time.Second)
	require.True(t, m.TryConsume("10.0.0.1", "fast", 1, time.Hour, false))
}

func TestTiersAreIndependent(t *testing.T) {
	m := New()

	require.True(t, m.TryConsume("c", "fast", 1, time.Hour, false))
	require.False(t, m.TryConsume("c", "fast", 1, time.Hour, false))

	// Exhausting "fast" leaves "pro" untouched.
	require.True(t, m.TryConsume("c", "pro", 1, time.Hour, false))
}

func TestOwnerBypassNeverMutates(t *testing.T) {
	m := New()

	for i := 0; i < 10; i++ {
		require.True(t, m.TryConsume("owner", "fast", 1, time.Hour, true))
	}
	require.Equal(t, 1, m.Remaining("owner", "fast", 1, time.Hour))
}

// Count must never exceed the limit even when many requests race on the
// same (client, tier) key.
func TestConcurrentBurstNeverExceedsLimit(t *testing.T) {
	m := New()

	const limit = 10
	const workers = 100

	var admitted int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if m.TryConsume("10.0.0.1", "fast", limit, time.Hour, false) {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	require.Equal(t, int64(limit), admitted)
}
