// Package memoize caches the results of expensive functions in a ttl.Store.
//
// A memoized function owns one store. Every call builds a string key from a stable function name and the debug
// representation of its argument (see Key), consults the store and only runs the wrapped function on a miss.
// Functions taking several arguments take them as one struct:
//
//	type searchArgs struct {
//		Query string
//		Page  int
//	}
//	search := memoize.Wrap("search", time.Minute, func(a searchArgs) []Result { ... })
//	defer search.Close()
//	results := search.Call(searchArgs{Query: "gopher", Page: 1})
//
// Wrap caches every result. WrapFallible only caches results returned with a nil error and WrapOptional only caches
// results that were found. Concurrent misses on the same key run the wrapped function once.
//
// There is no hidden global cache per call site: the application owns a Registry (or the wrappers themselves) and
// passes it to whichever component needs memoization.
package memoize
