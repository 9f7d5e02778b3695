package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock
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

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now), WithJanitorInterval(time.Hour))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	t.Run("marks a new key", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "receipt-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("second mark of the same key is a replay", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "receipt-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "receipt-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("key can be marked again after expiry", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "receipt-3", time.Minute)
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)

		isNew, err := store.MarkProcessed(ctx, "receipt-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "known", time.Minute)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(time.Minute)

	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.False(t, processed, "a key expires exactly at its ttl")
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	store.MarkProcessed(ctx, "short-1", time.Minute)
	store.MarkProcessed(ctx, "short-2", time.Minute)
	store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Size())

	clock.Advance(5 * time.Minute)
	store.sweep()

	assert.Equal(t, 1, store.Size())
	processed, err := store.IsProcessed(ctx, "long")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentMark(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const workers = 100
	results := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := store.MarkProcessed(ctx, "same-key", time.Hour)
			results <- err == nil && isNew
		}()
	}
	wg.Wait()
	close(results)

	newCount := 0
	for isNew := range results {
		if isNew {
			newCount++
		}
	}
	assert.Equal(t, 1, newCount, "exactly one caller wins the key")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
