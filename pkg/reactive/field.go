package reactive

import (
	"github.com/vango-dev/kinetic/internal/errors"
)

// Field is a reactive state member. Reads return the stored value; writes
// go through Set, which drives invalidation, watchers, and update requests.
type Field[T any] struct {
	scope *Scope
	name  string
	value T
}

// NewField declares a field named name on s with an initial value. The
// initial value is stored without side effects.
func NewField[T any](s *Scope, name string, initial T) *Field[T] {
	f := &Field[T]{scope: s, name: name, value: initial}
	if s != nil {
		s.register(name, f)
	}
	return f
}

// Name returns the field name.
func (f *Field[T]) Name() string {
	return f.name
}

// Get returns the stored value.
func (f *Field[T]) Get() T {
	return f.value
}

// Set stores v. A value Same as the current one is ignored. Otherwise the
// scope's computed slots are invalidated, the field's watchers run in order
// with (v, old), and an update is requested if the host is mounted. During
// the initializing window Set only stores.
func (f *Field[T]) Set(v T) {
	s := f.scope
	if s == nil || s.initializing {
		f.value = v
		return
	}
	old := f.value
	if Same(old, v) {
		return
	}
	f.value = v
	s.changed(f.name, v, old)
}

// Update applies fn to the current value and stores the result.
func (f *Field[T]) Update(fn func(T) T) {
	f.Set(fn(f.value))
}

func (f *Field[T]) getAny() any {
	return f.value
}

func (f *Field[T]) setAny(v any) error {
	if v == nil {
		var zero T
		f.Set(zero)
		return nil
	}
	tv, ok := v.(T)
	if !ok {
		var zero T
		return errors.New(errors.CodeFieldType).
			WithOp("Scope.Set").
			WithDetailf("field %q holds %T, got %T", f.name, any(zero), v)
	}
	f.Set(tv)
	return nil
}
