package memoize

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/nobletooth/ttlcache/pkg/ttl"
	"golang.org/x/sync/singleflight"
)

// ErrPanicked wraps the panic value of a memoized function. The panic is never cached.
var ErrPanicked = errors.New("memoized function panicked")

// outcome is the result of one run of a wrapped function.
type outcome[R any] struct {
	value R
	keep  bool // Whether the value may be cached (and, for optional functions, was found).
	err   error
}

// memo is the cache shared by every flavor of memoized function.
type memo[A, R any] struct {
	name     string
	store    *ttl.Store[string, R]
	hashKeys bool
	dedup    bool
	group    singleflight.Group
	metrics  callMetrics
}

func newMemo[A, R any](name string, ttlDuration time.Duration, opts ...Option) *memo[A, R] {
	o := newOptions(opts...)
	storeOpts := append([]ttl.Option{ttl.WithName(name)}, o.storeOpts...)
	return &memo[A, R]{
		name:     name,
		store:    ttl.New[string, R](o.ctx, ttlDuration, storeOpts...),
		hashKeys: o.hashKeys,
		dedup:    o.dedup,
		metrics:  newCallMetrics(name),
	}
}

// Name returns the function identifier used as the key prefix.
func (m *memo[A, R]) Name() string { return m.name }

// Key returns the cache key used for `arg`.
func (m *memo[A, R]) Key(arg A) string {
	if m.hashKeys {
		return HashedKey(m.name, arg)
	}
	return Key(m.name, arg)
}

// Forget drops the cached result for `arg`, if any.
func (m *memo[A, R]) Forget(arg A) bool {
	_, found := m.store.Remove(m.Key(arg))
	return found
}

// Purge drops every cached result.
func (m *memo[A, R]) Purge() { m.store.Clear() }

// Len returns the number of cached results, expired but not yet reaped ones included.
func (m *memo[A, R]) Len() int { return m.store.Len() }

// Close stops the reaper of the function's cache. The function keeps working afterward.
func (m *memo[A, R]) Close() error { return m.store.Close() }

// load returns the cached result for `arg` or runs `compute`, caching its value when the outcome allows it.
// Waiting for a computation started by another caller is abandoned when ctx is done.
func (m *memo[A, R]) load(ctx context.Context, arg A, compute func() outcome[R]) outcome[R] {
	key := m.Key(arg)
	if value, found := m.store.Get(key); found {
		m.metrics.hits.Inc()
		return outcome[R]{value: value, keep: true}
	}
	m.metrics.misses.Inc()

	run := func() (out outcome[R]) {
		// A computation that finished between the lookup above and joining the group already filled the cache.
		if value, found := m.store.Peek(key); found {
			return outcome[R]{value: value, keep: true}
		}
		// A panic must not escape: under DoChan it would be re-raised on a goroutine no caller can recover.
		defer func() {
			if r := recover(); r != nil {
				m.metrics.errors.Inc()
				out = outcome[R]{err: fmt.Errorf("%w: %s: %v\n%s", ErrPanicked, m.name, r, debug.Stack())}
			}
		}()
		out = compute()
		switch {
		case out.err != nil:
			m.metrics.errors.Inc()
		case !out.keep:
			m.metrics.uncached.Inc()
		default:
			m.store.Insert(key, out.value)
		}
		return out
	}
	if !m.dedup {
		return run()
	}
	shared := func() (any, error) { return run(), nil }
	if ctx.Done() == nil { // Never cancelled, so there is nothing to select on.
		result, _, _ := m.group.Do(key, shared)
		return result.(outcome[R])
	}

	results := m.group.DoChan(key, shared)
	select {
	case <-ctx.Done():
		return outcome[R]{err: context.Cause(ctx)}
	case result := <-results:
		return result.Val.(outcome[R])
	}
}

// Func is a memoized infallible function. Every result is cached.
type Func[A, R any] struct {
	*memo[A, R]
	fn func(A) R
}

// Wrap memoizes `fn` under the identifier `name` for `ttl`.
func Wrap[A, R any](name string, ttl time.Duration, fn func(A) R, opts ...Option) *Func[A, R] {
	return &Func[A, R]{memo: newMemo[A, R](name, ttl, opts...), fn: fn}
}

// Call returns the cached result for `arg`, running the wrapped function on a miss. If the wrapped function panics,
// Call panics with an error wrapping ErrPanicked in every caller sharing that computation.
func (f *Func[A, R]) Call(arg A) R {
	out := f.load(context.Background(), arg, func() outcome[R] {
		return outcome[R]{value: f.fn(arg), keep: true}
	})
	if out.err != nil {
		panic(out.err)
	}
	return out.value
}

// Memoize wraps `fn` and returns the memoized function along with the function stopping its cache reaper.
func Memoize[A, R any](name string, ttl time.Duration, fn func(A) R, opts ...Option) (func(A) R, func() error) {
	f := Wrap(name, ttl, fn, opts...)
	return f.Call, f.Close
}

// FallibleFunc is a memoized function that may fail. Only successful results are cached.
type FallibleFunc[A, R any] struct {
	*memo[A, R]
	fn func(context.Context, A) (R, error)
}

// WrapFallible memoizes `fn` under the identifier `name` for `ttl`. Errors are returned to the caller and never
// cached, so the next call retries.
func WrapFallible[A, R any](name string, ttl time.Duration, fn func(context.Context, A) (R, error),
	opts ...Option) *FallibleFunc[A, R] {
	return &FallibleFunc[A, R]{memo: newMemo[A, R](name, ttl, opts...), fn: fn}
}

// Call returns the cached result for `arg`, running the wrapped function on a miss. When concurrent callers share a
// computation, it runs with the first caller's context values but without its cancellation; a caller whose ctx is done
// stops waiting and gets the context's error. A panic in the wrapped function is returned as an error wrapping
// ErrPanicked.
func (f *FallibleFunc[A, R]) Call(ctx context.Context, arg A) (R, error) {
	runCtx := ctx
	if f.dedup {
		runCtx = context.WithoutCancel(ctx)
	}
	out := f.load(ctx, arg, func() outcome[R] {
		value, err := f.fn(runCtx, arg)
		return outcome[R]{value: value, keep: err == nil, err: err}
	})
	return out.value, out.err
}

// OptionalFunc is a memoized lookup that may find nothing. Only found results are cached.
type OptionalFunc[A, R any] struct {
	*memo[A, R]
	fn func(A) (R, bool)
}

// WrapOptional memoizes `fn` under the identifier `name` for `ttl`. Calls that find nothing are not cached.
func WrapOptional[A, R any](name string, ttl time.Duration, fn func(A) (R, bool), opts ...Option) *OptionalFunc[A, R] {
	return &OptionalFunc[A, R]{memo: newMemo[A, R](name, ttl, opts...), fn: fn}
}

// Call returns the cached result for `arg`, running the wrapped function on a miss. A panic in the wrapped function
// is re-raised like in Func.Call.
func (f *OptionalFunc[A, R]) Call(arg A) (R, bool /*found*/) {
	out := f.load(context.Background(), arg, func() outcome[R] {
		value, found := f.fn(arg)
		return outcome[R]{value: value, keep: found}
	})
	if out.err != nil {
		panic(out.err)
	}
	return out.value, out.keep
}
