package ttl

import (
	"context"
	"time"
)

// reaper is a background goroutine that handles entry expiration. It wakes up every `interval`, takes the cache lock
// and removes every entry whose age reached the TTL. A sweep that can't get the lock within `lockWait` is skipped and
// retried on the next tick. `done` is closed when the goroutine returns.
func (s *state[K, V]) reaper(ctx context.Context, interval, lockWait time.Duration, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger().Debug("Reaper stopped.", "reason", context.Cause(ctx))
			return
		case <-ticker.C:
			if !s.tryLockFor(ctx, lockWait) {
				if ctx.Err() == nil {
					s.metrics.sweepsSkipped.Inc()
					s.logger().Warn("Skipped a sweep, the cache lock is busy.", "lockWait", lockWait)
				}
				continue
			}
			removed, remaining := s.sweepLocked()
			s.mux.Unlock()

			s.metrics.sweepsCompleted.Inc()
			s.metrics.reaped.Add(float64(removed))
			if removed > 0 {
				s.logger().Debug("Reaped expired entries.", "removed", removed, "remaining", remaining)
			}
		}
	}
}

// tryLockFor polls the cache lock until it is acquired, `wait` elapses or ctx is done. It reports whether the lock is
// now held by the caller.
func (s *state[K, V]) tryLockFor(ctx context.Context, wait time.Duration) bool {
	if s.mux.TryLock() {
		return true
	}
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	poll := time.NewTicker(lockPollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-poll.C:
			if s.mux.TryLock() {
				return true
			}
		}
	}
}

// sweepLocked removes every entry whose age is at least the TTL. The caller must hold the lock.
func (s *state[K, V]) sweepLocked() (removed, remaining int) {
	defer s.recoverMap("sweep")

	now := s.now()
	for key, e := range s.entries {
		if now.Sub(e.insertedAt) >= s.ttl {
			delete(s.entries, key)
			removed++
		}
	}
	s.metrics.entries.Set(float64(len(s.entries)))
	return removed, len(s.entries)
}
