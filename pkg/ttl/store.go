package ttl

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/nobletooth/ttlcache/pkg/utils"
)

// entry is a cached value and the time it was (last) inserted.
type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// state is the part of a store shared with the reaper goroutine. It must never point back to the Store handle, or
// the handle could not be garbage collected while the reaper runs.
type state[K comparable, V any] struct {
	name    string
	ttl     time.Duration
	now     func() time.Time
	metrics storeMetrics

	mux     sync.Mutex // Guards entries; there is no finer-grained locking.
	entries map[K]entry[V]
}

// Store is a thread-safe key/value map whose entries expire `ttl` after their last insert.
// A *Store is meant to be shared: hand the same pointer to every goroutine that uses the cache.
type Store[K comparable, V any] struct {
	*state[K, V]
	cancel     context.CancelFunc // Stops the reaper.
	reaperDone <-chan struct{}    // Closed once the reaper goroutine has returned.
	closeOnce  sync.Once
	cleanup    runtime.Cleanup
}

// New creates an empty store and starts its reaper. The reaper stops when `ctx` is cancelled, when Close is called
// or when the returned handle is garbage collected, whichever happens first. New never fails: a non-positive ttl is
// reported as an invariant and replaced with the smallest positive duration.
func New[K comparable, V any](ctx context.Context, ttl time.Duration, opts ...Option) *Store[K, V] {
	o := newOptions(opts...)
	if ttl <= 0 {
		utils.RaiseInvariant("ttl", "non_positive_ttl",
			"Invalid ttl has been given to ttl cache.", "cache", o.name, "ttl", ttl)
		ttl = time.Nanosecond
	}
	st := &state[K, V]{
		name:    o.name,
		ttl:     ttl,
		now:     o.now,
		metrics: newStoreMetrics(o.name),
		entries: make(map[K]entry[V]),
	}
	reaperCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go st.reaper(reaperCtx, o.sweepInterval, o.lockWait, done)

	store := &Store[K, V]{state: st, cancel: cancel, reaperDone: done}
	store.cleanup = runtime.AddCleanup(store, func(stop context.CancelFunc) { stop() }, cancel)
	st.logger().Debug("Created ttl cache.", "ttl", ttl, "sweepInterval", o.sweepInterval)
	return store
}

// Name returns the label the store reports in logs and metrics.
func (s *Store[K, V]) Name() string { return s.name }

// TTL returns the fixed time-to-live of every entry.
func (s *Store[K, V]) TTL() time.Duration { return s.ttl }

// Insert stores `value` for `key`, replacing any previous entry and resetting its age to zero.
func (s *Store[K, V]) Insert(key K, value V) {
	value = cloneValue(value)

	s.mux.Lock()
	defer s.mux.Unlock()
	defer s.recoverMap("insert")

	s.entries[key] = entry[V]{value: value, insertedAt: s.now()}
	s.metrics.inserts.Inc()
	s.metrics.entries.Set(float64(len(s.entries)))
}

// Get returns a copy of the value stored for `key` if its age is at most the TTL. Missing and expired keys are
// reported the same way. Expired entries are left for the reaper.
func (s *Store[K, V]) Get(key K) (V, bool /*found*/) {
	value, status := s.lookup(key)
	switch status {
	case lookupHit:
		s.metrics.hits.Inc()
		return cloneValue(value), true
	case lookupExpired:
		s.metrics.expired.Inc()
	default:
		s.metrics.misses.Inc()
	}
	return *new(V), false
}

// Peek is Get without recording a lookup in the cache metrics, for callers re-checking a key they already looked up.
func (s *Store[K, V]) Peek(key K) (V, bool /*found*/) {
	if value, status := s.lookup(key); status == lookupHit {
		return cloneValue(value), true
	}
	return *new(V), false
}

type lookupStatus int

const (
	lookupMiss lookupStatus = iota
	lookupHit
	lookupExpired
)

func (s *state[K, V]) lookup(key K) (value V, status lookupStatus) {
	s.mux.Lock()
	defer s.mux.Unlock()
	defer s.recoverMap("get")

	e, found := s.entries[key]
	if !found {
		return value, lookupMiss
	}
	if s.now().Sub(e.insertedAt) > s.ttl {
		return value, lookupExpired
	}
	return e.value, lookupHit
}

// Remove deletes `key` and returns its value, whether or not the entry had expired.
func (s *Store[K, V]) Remove(key K) (V, bool /*found*/) {
	return s.remove(key)
}

func (s *state[K, V]) remove(key K) (value V, found bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	defer s.recoverMap("remove")

	e, found := s.entries[key]
	if !found {
		return value, false
	}
	delete(s.entries, key)
	s.metrics.entries.Set(float64(len(s.entries)))
	return e.value, true
}

// Clear deletes every entry.
func (s *Store[K, V]) Clear() {
	s.mux.Lock()
	defer s.mux.Unlock()

	clear(s.entries)
	s.metrics.entries.Set(0)
}

// IsEmpty reports whether the map holds no entries. Expired entries the reaper hasn't removed yet still count.
func (s *Store[K, V]) IsEmpty() bool {
	return s.Len() == 0
}

// Len returns the number of entries in the map, expired but not yet reaped entries included.
func (s *Store[K, V]) Len() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.entries)
}

// Close stops the reaper and waits for it to return. Close is safe to call multiple times. The store stays usable
// after Close; expired entries are still hidden from Get but are no longer removed in the background.
func (s *Store[K, V]) Close() error {
	s.closeOnce.Do(func() {
		s.cleanup.Stop()
		s.cancel()
	})
	<-s.reaperDone
	return nil
}

// recoverMap must be deferred right after acquiring the lock. A panic while mutating the map leaves it in an unknown
// state, so the map is replaced with an empty one and the panic does not reach the caller.
func (s *state[K, V]) recoverMap(op string) {
	if r := recover(); r != nil {
		dropped := len(s.entries)
		s.entries = make(map[K]entry[V])
		s.metrics.mapResets.Inc()
		s.metrics.entries.Set(0)
		utils.RaiseInvariant("ttl", "map_reset", "Recovered from a panic under the cache lock, dropped all entries.",
			"cache", s.name, "op", op, "dropped", dropped, "panic", r)
	}
}

func (s *state[K, V]) logger() *slog.Logger {
	return utils.Logger("ttl", "cache", s.name)
}
