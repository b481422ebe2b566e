package memoize

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/nobletooth/ttlcache/pkg/utils"
)

var (
	ErrTypeMismatch   = errors.New("call site is registered with a different function type")
	ErrRegistryClosed = errors.New("registry is closed")
)

// closer is implemented by every memoized function flavor.
type closer interface {
	Close() error
}

// Registry owns one memoized function per call site. It replaces package-level caches: the composing application
// creates a Registry, hands it to the components that memoize, and closes it on shutdown.
type Registry struct {
	mux    sync.Mutex
	sites  map[ /*callSite*/ string]closer
	closed bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sites: make(map[string]closer)}
}

// Lookup returns the function registered for `callSite`, calling `build` to create and register it on first use.
// `build` runs at most once per call site, under the registry lock, so it must not use the registry.
func Lookup[T closer](r *Registry, callSite string, build func() T) (T, error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	var zero T
	if r.closed {
		return zero, ErrRegistryClosed
	}
	if existing, found := r.sites[callSite]; found {
		typed, ok := existing.(T)
		if !ok {
			return zero, fmt.Errorf("%w: %q holds %T, requested %T", ErrTypeMismatch, callSite, existing, zero)
		}
		return typed, nil
	}
	built := build()
	r.sites[callSite] = built
	utils.Logger("memoize").Debug("Registered memoized function.", "callSite", callSite, "type", fmt.Sprintf("%T", built))
	return built, nil
}

// Names returns the registered call sites in sorted order.
func (r *Registry) Names() []string {
	r.mux.Lock()
	defer r.mux.Unlock()
	return slices.Sorted(maps.Keys(r.sites))
}

// Close stops the cache reaper of every registered function. Later lookups fail with ErrRegistryClosed.
// Close is safe to call multiple times.
func (r *Registry) Close() error {
	r.mux.Lock()
	sites := r.sites
	r.sites = make(map[string]closer)
	r.closed = true
	r.mux.Unlock()

	var errs []error
	for callSite, site := range sites {
		if err := site.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %q: %w", callSite, err))
		}
	}
	return errors.Join(errs...)
}
