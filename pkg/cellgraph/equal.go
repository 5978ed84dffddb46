package cellgraph

import (
	"reflect"
)

// as converts a stored value back to T. A nil interface is the zero T,
// which covers interface-typed variables initialised to nil.
func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// defaultEquals compares two stored values.
func defaultEquals(a, b any) bool {
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		// Slices, maps, structs and the remaining scalar kinds.
		return reflect.DeepEqual(a, b)
	}
}
