package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCachesUntilExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	var calls int
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"events", "account"}, nil
	}

	first, err := store.GetOrLoad(context.Background(), "segments", 30*time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "account"}, first)

	_, err = store.GetOrLoad(context.Background(), "segments", 30*time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	now = now.Add(31 * time.Minute)
	_, err = store.GetOrLoad(context.Background(), "segments", 30*time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoryStoreInvalidate(t *testing.T) {
	store := NewMemoryStore()
	values := []string{"events"}
	load := func(context.Context) ([]string, error) { return values, nil }

	got, err := store.GetOrLoad(context.Background(), "segments", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"events"}, got)

	values = []string{"events", "tickets"}
	require.NoError(t, store.Invalidate(context.Background(), "segments"))

	got, err = store.GetOrLoad(context.Background(), "segments", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "tickets"}, got)
}

func TestMemoryStoreDoesNotCacheErrors(t *testing.T) {
	store := NewMemoryStore()
	failing := func(context.Context) ([]string, error) { return nil, errors.New("db down") }

	_, err := store.GetOrLoad(context.Background(), "segments", time.Hour, failing)
	require.Error(t, err)

	got, err := store.GetOrLoad(context.Background(), "segments", time.Hour, func(context.Context) ([]string, error) {
		return []string{"ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got)
}

func TestMemoryStoreSharesConcurrentLoads(t *testing.T) {
	store := NewMemoryStore()
	var calls int32
	release := make(chan struct{})
	load := func(context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []string{"events"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.GetOrLoad(context.Background(), "segments", time.Hour, load)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	load := func(context.Context) ([]string, error) { return []string{"events"}, nil }

	got, err := store.GetOrLoad(context.Background(), "segments", time.Hour, load)
	require.NoError(t, err)
	got[0] = "mutated"

	again, err := store.GetOrLoad(context.Background(), "segments", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, "events", again[0])
}

func TestMemoryStoreLoadIgnoresCallerCancellation(t *testing.T) {
	store := NewMemoryStore()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	load := func(ctx context.Context) ([]string, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []string{"events"}, nil
	}

	got, err := store.GetOrLoad(cancelled, "segments", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"events"}, got)

	// the shared result was cached for later callers
	_, err = store.GetOrLoad(context.Background(), "segments", time.Hour, func(context.Context) ([]string, error) {
		return nil, errors.New("should not reload")
	})
	require.NoError(t, err)
}
