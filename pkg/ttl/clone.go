package ttl

import (
	"bytes"
	"reflect"
)

// Cloner is implemented by values that share mutable state with their copies (pointers, structs holding slices).
// The store clones such values on the way in and on the way out, so no caller ever aliases a map slot.
// Slices and maps don't need it: their elements are copied one level deep.
type Cloner[V any] interface {
	Clone() V
}

// cloneValue returns an independent copy of `v`. Plain values are already copied by assignment; slices and maps get a
// shallow element copy, like bytes.Clone and maps.Clone.
func cloneValue[V any](v V) V {
	switch typed := any(v).(type) {
	case Cloner[V]:
		return typed.Clone()
	case []byte:
		return any(bytes.Clone(typed)).(V)
	}

	rv := reflect.ValueOf(any(v))
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface().(V)
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		for iter := rv.MapRange(); iter.Next(); {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface().(V)
	default:
		return v
	}
}
