package component

import (
	"sort"
	"time"

	"golang.org/x/net/html"

	"github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// SetState writes reactive fields by name. update is either a State (or
// plain map) of new values, or a func(prev State, props Props) State
// computing them. All writes run in one batch. Callbacks run after the next
// update routine finishes, skipped or failed included, or immediately when
// the component is not mounted or no update is pending.
// The first unknown field or type mismatch is returned; the remaining
// fields are still written.
func (b *Base) SetState(update any, callbacks ...func()) error {
	var partial State
	switch u := update.(type) {
	case nil:
	case State:
		partial = u
	case map[string]any:
		partial = State(u)
	case func(prev State, props Props) State:
		partial = u(b.scope.Snapshot(), b.props)
	default:
		return errors.Newf(errors.CategoryMisuse, "SetState: unsupported update %T", update).
			WithOp(b.name + ".SetState")
	}

	names := make([]string, 0, len(partial))
	for name := range partial {
		names = append(names, name)
	}
	sort.Strings(names)

	var firstErr error
	b.BatchUpdate(func() {
		for _, name := range names {
			if err := b.scope.Set(name, partial[name]); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})

	switch {
	case !b.IsMounted():
		for _, cb := range callbacks {
			b.isolate(PhaseCallback, b.name+".SetState callback", cb)
		}
	case b.scheduled || b.updating || b.batchDepth > 0:
		b.callbacks = append(b.callbacks, callbacks...)
	default:
		// No update is coming: a skip flag swallowed it.
		b.callbacks = append(b.callbacks, callbacks...)
		b.runCallbacks()
	}
	return firstErr
}

func (b *Base) runCallbacks() {
	cbs := b.callbacks
	b.callbacks = nil
	for _, cb := range cbs {
		b.isolate(PhaseCallback, b.name+".SetState callback", cb)
	}
}

// SetProps merges partial into a fresh props map and requests an update.
func (b *Base) SetProps(partial Props) {
	b.props = copyProps(b.props, partial)
	b.Update("props")
}

// CreateRef returns the attribute that registers an element under name.
// Place it in the rendered tree; GetRef resolves it after mount and after
// every update.
func (b *Base) CreateRef(name string) vdom.Attr {
	return vdom.Ref(name)
}

// GetRef returns the element registered under name by the last render, or
// nil.
func (b *Base) GetRef(name string) *html.Node {
	return b.refs[name]
}

// Memo returns the cached value for key, calling compute only when deps
// differ from the previous call under key in length or in the identity of
// any element.
func (b *Base) Memo(key string, compute func() any, deps ...any) any {
	if e, ok := b.memos[key]; ok && sameDeps(e.deps, deps) {
		return e.value
	}
	v := compute()
	b.memos[key] = memoEntry{value: v, deps: append([]any(nil), deps...)}
	return v
}

// MemoOf is the typed form of Memo.
func MemoOf[T any](b *Base, key string, compute func() T, deps ...any) T {
	v := b.Memo(key, func() any { return compute() }, deps...)
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

func sameDeps(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reactive.Same(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Subscribe registers fn to run at unmount. On an instance that has already
// been unmounted fn runs immediately.
func (b *Base) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	if b.terminated {
		b.isolate(PhaseCleanup, b.name+".cleanup", fn)
		return
	}
	b.cleanups = append(b.cleanups, fn)
}

// Debounce returns a function that calls fn once calls have stopped for d.
// Each call restarts the wait. Pending calls are dropped at unmount.
func (b *Base) Debounce(fn func(), d time.Duration) func() {
	var (
		id      loop.TimerID
		pending bool
	)
	return func() {
		if b.terminated {
			return
		}
		if pending {
			b.clearTimer(id)
		}
		pending = true
		id = b.setTimer(d, func() {
			pending = false
			fn()
		})
	}
}

// Throttle returns a function that calls fn at most once per d. The first
// call in a window runs immediately; further calls in the window collapse
// into one trailing call at the window's end. Pending calls are dropped at
// unmount.
func (b *Base) Throttle(fn func(), d time.Duration) func() {
	var (
		last     time.Time
		ran      bool
		trailing bool
	)
	return func() {
		if b.terminated {
			return
		}
		l := b.rt.Loop()
		now := l.Now()
		if !ran || now.Sub(last) >= d {
			ran = true
			last = now
			fn()
			return
		}
		if trailing {
			return
		}
		trailing = true
		b.setTimer(d-now.Sub(last), func() {
			trailing = false
			last = l.Now()
			fn()
		})
	}
}

func (b *Base) setTimer(d time.Duration, fn func()) loop.TimerID {
	var id loop.TimerID
	id = b.rt.Loop().SetTimeout(d, func() {
		delete(b.timers, id)
		fn()
	})
	b.timers[id] = struct{}{}
	return id
}

func (b *Base) clearTimer(id loop.TimerID) {
	b.rt.Loop().ClearTimeout(id)
	delete(b.timers, id)
}

func (b *Base) clearTimers() {
	for id := range b.timers {
		b.rt.Loop().ClearTimeout(id)
	}
	b.timers = make(map[loop.TimerID]struct{})
}
