package reactive

import "reflect"

// Same reports whether a and b are identical for change detection. It never
// looks inside containers, so mutating a slice or map in place and writing
// it back is not a change.
//
//   - slices are the same when they share a backing array start and length
//   - maps, pointers, and channels compare by pointer
//   - funcs are never the same unless both are nil
//   - other comparable values compare with ==
//   - values that are not comparable are never the same
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}
	if !va.Type().Comparable() {
		return false
	}
	return equal(a, b)
}

// equal compares with ==, treating a runtime panic (an interface field
// holding an uncomparable value) as not equal.
func equal(a, b any) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
