package reactive

import (
	"github.com/vango-dev/kinetic/pkg/metrics"
)

// cachedSlot caches one class-level computed value for an instance.
type cachedSlot struct {
	value any
	dirty bool
}

func (c *cachedSlot) invalidate() { c.dirty = true }

func (c *cachedSlot) reset() {
	c.value = nil
	c.dirty = true
}

// Read returns the computed value name declared on the scope's type. It is
// computed on first read and again only after a field write has marked the
// scope dirty. Reading an undeclared computed value logs and returns the
// zero value.
func Read[T any](s *Scope, name string) T {
	var zero T
	g, ok := s.typ.getter(name)
	if !ok {
		s.logger.Error("reactive: unknown computed value", "computed", name)
		return zero
	}
	c, ok := s.computed[name]
	if !ok {
		c = &cachedSlot{dirty: true}
		s.computed[name] = c
		s.addSlot(c)
	}
	if c.dirty {
		c.value = g(s.self)
		c.dirty = false
		metrics.RecordRecompute()
	}
	if c.value == nil {
		return zero
	}
	v, ok := c.value.(T)
	if !ok {
		s.logger.Error("reactive: computed value type mismatch", "computed", name)
		return zero
	}
	return v
}

// Computed is an instance-level computed value created with NewComputed.
type Computed[T any] struct {
	fn    func() T
	value T
	dirty bool
}

// NewComputed attaches a lazily evaluated getter to s. Like class-level
// computed values it is invalidated by any field write on s.
func NewComputed[T any](s *Scope, fn func() T) *Computed[T] {
	c := &Computed[T]{fn: fn, dirty: true}
	if s != nil {
		s.addSlot(c)
	}
	return c
}

// Get returns the cached value, recomputing it if dirty.
func (c *Computed[T]) Get() T {
	if c.dirty {
		c.value = c.fn()
		c.dirty = false
		metrics.RecordRecompute()
	}
	return c.value
}

// Dirty reports whether the next Get will recompute.
func (c *Computed[T]) Dirty() bool {
	return c.dirty
}

func (c *Computed[T]) invalidate() { c.dirty = true }

func (c *Computed[T]) reset() {
	var zero T
	c.value = zero
	c.dirty = true
}
