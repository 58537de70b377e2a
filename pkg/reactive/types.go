package reactive

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/vango-dev/kinetic/internal/errors"
)

// Type holds the class-level reactive metadata of one component type: the
// ordered watcher lists per field and the computed getters. It is shared by
// every instance of the type.
type Type struct {
	name  string
	rtype reflect.Type

	mu       sync.RWMutex
	watchers map[string][]watcher
	computed map[string]getter
}

type watcher struct {
	name string
	fn   func(self, newValue, oldValue any) error
}

type getter func(self any) any

var registry = struct {
	sync.RWMutex
	types map[reflect.Type]*Type
}{types: make(map[reflect.Type]*Type)}

// Define registers the reactive metadata table for *C and returns it.
// Calling Define again for the same type returns the existing table.
func Define[C any](name string) *Type {
	rt := reflect.TypeOf((*C)(nil))

	registry.Lock()
	defer registry.Unlock()
	if t, ok := registry.types[rt]; ok {
		return t
	}
	if name == "" {
		name = rt.Elem().Name()
	}
	t := &Type{
		name:     name,
		rtype:    rt,
		watchers: make(map[string][]watcher),
		computed: make(map[string]getter),
	}
	registry.types[rt] = t
	return t
}

// TypeOf returns the table registered for self's dynamic type, or nil.
func TypeOf(self any) *Type {
	if self == nil {
		return nil
	}
	registry.RLock()
	defer registry.RUnlock()
	return registry.types[reflect.TypeOf(self)]
}

// Name returns the registered type name.
func (t *Type) Name() string {
	return t.name
}

// WatchMethod registers the method named method as a watcher of field.
// The method must take the new and the old value and may return an error.
// Watchers run in registration order.
func (t *Type) WatchMethod(field, method string) error {
	m, ok := t.rtype.MethodByName(method)
	if !ok {
		return errors.New(errors.CodeInvalidWatcher).
			WithOp(t.name + ".WatchMethod").
			WithDetailf("%s has no method %s", t.name, method)
	}
	mt := m.Type
	if mt.NumIn() != 3 || mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
		return errors.New(errors.CodeInvalidWatcher).
			WithOp(t.name + ".WatchMethod").
			WithDetailf("%s.%s has signature %s", t.name, method, mt)
	}

	fn := func(self, newValue, oldValue any) error {
		nv, err := argValue(newValue, mt.In(1))
		if err != nil {
			return err
		}
		ov, err := argValue(oldValue, mt.In(2))
		if err != nil {
			return err
		}
		out := m.Func.Call([]reflect.Value{reflect.ValueOf(self), nv, ov})
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}
	t.addWatcher(field, watcher{name: method, fn: fn})
	return nil
}

// Watch registers a typed watcher for field under name.
func Watch[C, V any](t *Type, field, name string, fn func(c *C, newValue, oldValue V)) error {
	if fn == nil {
		return errors.New(errors.CodeInvalidWatcher).WithOp(t.name + ".Watch").
			WithDetailf("nil watcher %s for field %s", name, field)
	}
	if err := t.checkOwner(reflect.TypeOf((*C)(nil))); err != nil {
		return err
	}
	t.addWatcher(field, watcher{name: name, fn: func(self, newValue, oldValue any) error {
		n, _ := newValue.(V)
		o, _ := oldValue.(V)
		fn(self.(*C), n, o)
		return nil
	}})
	return nil
}

// Watchers returns the watcher names registered for field, in order.
func (t *Type) Watchers(field string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ws := t.watchers[field]
	names := make([]string, len(ws))
	for i, w := range ws {
		names[i] = w.name
	}
	return names
}

// ComputedMethod declares the method named name as a computed value. The
// method must be a getter: no arguments and exactly one result.
func (t *Type) ComputedMethod(name string) error {
	m, ok := t.rtype.MethodByName(name)
	if !ok {
		return errors.New(errors.CodeNotGetter).
			WithOp(t.name + ".ComputedMethod").
			WithDetailf("%s has no method %s", t.name, name)
	}
	if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
		return errors.New(errors.CodeNotGetter).
			WithOp(t.name + ".ComputedMethod").
			WithDetailf("%s.%s has signature %s", t.name, name, m.Type)
	}
	t.addComputed(name, func(self any) any {
		return m.Func.Call([]reflect.Value{reflect.ValueOf(self)})[0].Interface()
	})
	return nil
}

// DefineComputed declares a typed computed value.
func DefineComputed[C, R any](t *Type, name string, fn func(c *C) R) error {
	if fn == nil {
		return errors.New(errors.CodeNotGetter).
			WithOp(t.name + ".DefineComputed").
			WithDetailf("computed %s has no getter", name)
	}
	if err := t.checkOwner(reflect.TypeOf((*C)(nil))); err != nil {
		return err
	}
	t.addComputed(name, func(self any) any { return fn(self.(*C)) })
	return nil
}

// Computed returns the names of the declared computed values, sorted.
func (t *Type) Computed() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.computed))
	for name := range t.computed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Type) addWatcher(field string, w watcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watchers[field] = append(t.watchers[field], w)
}

func (t *Type) addComputed(name string, g getter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.computed[name] = g
}

func (t *Type) watchersFor(field string) []watcher {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.watchers[field]
}

func (t *Type) getter(name string) (getter, bool) {
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	g, ok := t.computed[name]
	return g, ok
}

func (t *Type) checkOwner(rt reflect.Type) error {
	if rt != t.rtype {
		return errors.Newf(errors.CategoryReactive, "%s is registered for %s, not %s", t.name, t.rtype, rt)
	}
	return nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// argValue converts a stored value into a watcher argument of type want.
func argValue(v any, want reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(want), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(want) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(want) {
		return rv.Convert(want), nil
	}
	return reflect.Value{}, errors.New(errors.CodeFieldType).
		WithDetail(fmt.Sprintf("watcher expects %s, got %s", want, rv.Type()))
}
