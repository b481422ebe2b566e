package ttl

import (
	"flag"
	"time"

	"github.com/nobletooth/ttlcache/pkg/utils"
)

const (
	defaultSweepInterval = time.Second
	defaultLockWait      = 100 * time.Millisecond
	// lockPollInterval is how often a waiting reaper retries the cache lock.
	lockPollInterval = time.Millisecond
)

var (
	sweepInterval = flag.Duration("ttl_sweep_interval", defaultSweepInterval,
		"How often the reaper scans a cache for expired entries; independent of the cache TTL.")
	sweepLockWait = flag.Duration("ttl_sweep_lock_wait", defaultLockWait,
		"How long the reaper waits for a busy cache lock before skipping the sweep.")
)

type options struct {
	name          string
	sweepInterval time.Duration
	lockWait      time.Duration
	now           func() time.Time
}

// Option customizes a Store at construction time.
type Option func(*options)

// WithName labels the store in logs and metrics. Stores sharing a name share metric series.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithSweepInterval overrides the -ttl_sweep_interval flag for this store.
func WithSweepInterval(interval time.Duration) Option {
	return func(o *options) { o.sweepInterval = interval }
}

// WithLockWait overrides the -ttl_sweep_lock_wait flag for this store.
func WithLockWait(wait time.Duration) Option {
	return func(o *options) { o.lockWait = wait }
}

// WithClock replaces time.Now for age computations.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts ...Option) options {
	o := options{
		name:          "default",
		sweepInterval: *sweepInterval,
		lockWait:      *sweepLockWait,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sweepInterval <= 0 {
		utils.RaiseInvariant("ttl", "non_positive_sweep_interval",
			"Invalid sweep interval has been given to ttl cache.", "cache", o.name, "interval", o.sweepInterval)
		o.sweepInterval = defaultSweepInterval
	}
	if o.lockWait < 0 {
		o.lockWait = 0
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}
