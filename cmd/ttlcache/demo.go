package main

import (
	"context"
	"flag"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nobletooth/ttlcache/pkg/memoize"
)

const demoCallSite = "slow_square"

var (
	demoTTL    = flag.Duration("demo_ttl", 5*time.Second, "TTL of the demo function's cache.")
	demoRounds = flag.Int("demo_rounds", 3, "Number of demo rounds; each round calls the demo function for every argument.")
	demoDelay  = flag.Duration("demo_delay", 200*time.Millisecond, "Simulated cost of one uncached demo call.")

	// demoArgs repeats an argument so every round shows a hit even when the cache was cold.
	demoArgs = []int{2, 3, 2}
)

type demoSettings struct {
	ttl    time.Duration
	delay  time.Duration // Cost of one computation.
	pause  time.Duration // Wait between rounds.
	rounds int
}

// demoSettingsFromFlags pauses 3/4 of the ttl between rounds: the second round hits the cache, the third one finds
// the entries expired.
func demoSettingsFromFlags() demoSettings {
	return demoSettings{ttl: *demoTTL, delay: *demoDelay, pause: *demoTTL * 3 / 4, rounds: *demoRounds}
}

// demoFunc is a memoized slow square that counts how often it really computes.
type demoFunc struct {
	*memoize.FallibleFunc[int, int]
	computations *atomic.Int64
}

func newDemoFunc(ctx context.Context, settings demoSettings) *demoFunc {
	computations := new(atomic.Int64)
	slowSquare := func(ctx context.Context, n int) (int, error) {
		computations.Add(1)
		select {
		case <-time.After(settings.delay):
			return n * n, nil
		case <-ctx.Done():
			return 0, context.Cause(ctx)
		}
	}
	return &demoFunc{
		FallibleFunc: memoize.WrapFallible(demoCallSite, settings.ttl, slowSquare, memoize.WithContext(ctx)),
		computations: computations,
	}
}

type callReport struct {
	round   int
	arg     int
	result  int
	cached  bool
	elapsed time.Duration
}

// runDemo calls the memoized slow square for every demo argument, `rounds` times, and reports each call.
func runDemo(ctx context.Context, registry *memoize.Registry, settings demoSettings) ([]callReport, error) {
	square, err := memoize.Lookup(registry, demoCallSite, func() *demoFunc { return newDemoFunc(ctx, settings) })
	if err != nil {
		return nil, err
	}

	reports := make([]callReport, 0, settings.rounds*len(demoArgs))
	for round := 1; round <= settings.rounds; round++ {
		for _, arg := range demoArgs {
			before := square.computations.Load()
			start := time.Now()
			result, err := square.Call(ctx, arg)
			if err != nil {
				return reports, err
			}
			report := callReport{
				round:   round,
				arg:     arg,
				result:  result,
				cached:  square.computations.Load() == before,
				elapsed: time.Since(start),
			}
			reports = append(reports, report)
			slog.Info("Demo call.", "round", round, "key", square.Key(arg), "result", result,
				"cached", report.cached, "elapsed", report.elapsed)
		}
		if round == settings.rounds {
			break
		}
		select {
		case <-ctx.Done():
			return reports, context.Cause(ctx)
		case <-time.After(settings.pause):
		}
	}
	return reports, nil
}
