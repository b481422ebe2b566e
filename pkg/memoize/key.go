package memoize

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Key returns the cache key of calling function `name` with `arg`: the name followed by the Go-syntax representation
// of the argument. Pointer arguments are represented by their address, so pass values.
func Key(name string, arg any) string {
	return name + ":" + fmt.Sprintf("%#v", arg)
}

// HashedKey is Key with the argument part replaced by its xxhash digest. It keeps keys short for large arguments at
// the price of a (negligible) collision probability.
func HashedKey(name string, arg any) string {
	return fmt.Sprintf("%s:%016x", name, xxhash.Sum64String(fmt.Sprintf("%#v", arg)))
}
