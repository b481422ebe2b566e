package memoize

import (
	"context"

	"github.com/nobletooth/ttlcache/pkg/ttl"
)

type options struct {
	ctx       context.Context
	hashKeys  bool
	dedup     bool
	storeOpts []ttl.Option
}

// Option customizes a memoized function.
type Option func(*options)

// WithHashedKeys makes the function use HashedKey instead of Key.
func WithHashedKeys() Option {
	return func(o *options) { o.hashKeys = true }
}

// WithoutDedup lets concurrent misses on the same key each run the wrapped function.
func WithoutDedup() Option {
	return func(o *options) { o.dedup = false }
}

// WithContext bounds the lifetime of the function's cache reaper by `ctx`.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithStoreOptions forwards options to the underlying ttl.Store.
func WithStoreOptions(opts ...ttl.Option) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, opts...) }
}

func newOptions(opts ...Option) options {
	o := options{ctx: context.Background(), dedup: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	return o
}
