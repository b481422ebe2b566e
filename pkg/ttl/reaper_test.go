package ttl

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/nobletooth/ttlcache/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isClosed reports whether `done` has been closed without blocking.
func isClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func TestReaper_RemovesExpiredEntriesWithoutReads(t *testing.T) {
	store, clock := newTestStore[string, int](t, time.Minute, WithSweepInterval(5*time.Millisecond))

	for i := range 100 {
		store.Insert(fmt.Sprintf("key-%d", i), i)
	}
	assert.Equal(t, 100, store.Len())

	clock.Advance(time.Minute)
	assert.Eventually(t, store.IsEmpty, time.Second, 5*time.Millisecond,
		"The reaper should remove every expired entry")
	assert.Equal(t, 100.0, utils.CounterValue(store.metrics.reaped))
	assert.Zero(t, utils.GaugeValue(store.metrics.entries))
}

func TestReaper_KeepsFreshEntries(t *testing.T) {
	store, clock := newTestStore[string, int](t, time.Minute, WithSweepInterval(time.Millisecond))

	store.Insert("old", 1)
	clock.Advance(30 * time.Second)
	store.Insert("new", 2)
	clock.Advance(30 * time.Second)

	assert.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, time.Millisecond)
	sweeps := utils.CounterValue(store.metrics.sweepsCompleted)
	assert.Eventually(t, func() bool { return utils.CounterValue(store.metrics.sweepsCompleted) > sweeps+2 },
		time.Second, time.Millisecond, "The reaper should keep sweeping")

	_, found := store.Get("old")
	assert.False(t, found)
	val, found := store.Get("new")
	assert.True(t, found, "The reaper must not remove entries younger than the ttl")
	assert.Equal(t, 2, val)
}

func TestReaper_WallClock(t *testing.T) {
	store := New[string, int](context.Background(), 20*time.Millisecond,
		WithName(t.Name()), WithSweepInterval(5*time.Millisecond))
	defer func() { assert.NoError(t, store.Close()) }()

	store.Insert("key1", 1)
	store.Insert("key2", 2)
	assert.Eventually(t, store.IsEmpty, time.Second, 5*time.Millisecond,
		"Entries should be reaped shortly after their ttl")
}

func TestReaper_SkipsSweepWhenLockIsBusy(t *testing.T) {
	store, clock := newTestStore[string, int](t, time.Second,
		WithSweepInterval(2*time.Millisecond), WithLockWait(3*time.Millisecond))
	store.Insert("key", 1)

	store.mux.Lock()
	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool { return utils.CounterValue(store.metrics.sweepsSkipped) >= 2 },
		time.Second, time.Millisecond, "Sweeps should be skipped while the lock is held")
	assert.Len(t, store.entries, 1, "A skipped sweep must not touch the map")
	store.mux.Unlock()

	assert.Eventually(t, store.IsEmpty, time.Second, time.Millisecond,
		"The reaper should retry on the next tick once the lock is free")
}

func TestReaper_StopsOnClose(t *testing.T) {
	store, clock := newTestStore[string, int](t, time.Second, WithSweepInterval(time.Millisecond))

	require.NoError(t, store.Close())
	assert.True(t, isClosed(store.reaperDone), "Close should wait for the reaper to return")
	require.NoError(t, store.Close(), "Close should be idempotent")

	store.Insert("key", 1)
	clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, store.Len(), "No sweep should run after Close")
	_, found := store.Get("key")
	assert.False(t, found, "Reads still hide expired entries after Close")
}

func TestReaper_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := New[string, int](ctx, time.Second, WithName(t.Name()), WithSweepInterval(time.Millisecond))

	cancel()
	assert.Eventually(t, func() bool { return isClosed(store.reaperDone) }, time.Second, time.Millisecond)
	assert.NoError(t, store.Close())
}

func TestReaper_StopsWhenHandleIsCollected(t *testing.T) {
	done := func() <-chan struct{} {
		store := New[string, int](context.Background(), time.Minute,
			WithName(t.Name()), WithSweepInterval(time.Millisecond))
		store.Insert("key", 1)
		return store.reaperDone
	}()

	assert.Eventually(t, func() bool {
		runtime.GC()
		return isClosed(done)
	}, 5*time.Second, 10*time.Millisecond, "Dropping the last handle should stop the reaper")
}

func TestReaper_InvalidSweepIntervalFallsBack(t *testing.T) {
	before := utils.GetMetricValue("ttl", "non_positive_sweep_interval")
	o := newOptions(WithSweepInterval(0), WithLockWait(-time.Second), WithClock(nil))
	assert.Equal(t, before+1, utils.GetMetricValue("ttl", "non_positive_sweep_interval"))
	assert.Equal(t, defaultSweepInterval, o.sweepInterval)
	assert.Zero(t, o.lockWait)
	assert.NotNil(t, o.now)
}

func TestReaper_DefaultsFromFlags(t *testing.T) {
	utils.SetTestFlag(t, "ttl_sweep_interval", "250ms")
	utils.SetTestFlag(t, "ttl_sweep_lock_wait", "7ms")
	o := newOptions()
	assert.Equal(t, 250*time.Millisecond, o.sweepInterval)
	assert.Equal(t, 7*time.Millisecond, o.lockWait)
	assert.Equal(t, "default", o.name)
}
