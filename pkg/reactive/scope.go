package reactive

import (
	"log/slog"

	"github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/metrics"
)

// State is a snapshot of reactive field values keyed by field name.
type State map[string]any

// Host is the instance that owns a Scope. A changed field asks the host for
// an update only while the host is mounted.
type Host interface {
	IsMounted() bool
	RequestUpdate(key string)
}

// slot is anything a field write must invalidate.
type slot interface {
	invalidate()
	reset()
}

// fieldSlot is the untyped view of a Field used for by-name access.
type fieldSlot interface {
	getAny() any
	setAny(v any) error
}

// Scope holds the per-instance reactive state: the field table, the
// computed slots, and the initializing window. A Scope is owned by one
// instance and must only be used from the loop goroutine.
type Scope struct {
	self   any
	typ    *Type
	host   Host
	logger *slog.Logger

	initializing bool

	fields map[string]fieldSlot
	order  []string

	computed map[string]*cachedSlot
	slots    []slot
}

// NewScope creates the scope for self. The type table is looked up from
// self's dynamic type; host may be nil for standalone use. The scope starts
// in the initializing window, where writes only store.
func NewScope(self any, host Host, logger *slog.Logger) *Scope {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scope{
		self:         self,
		typ:          TypeOf(self),
		host:         host,
		initializing: true,
		fields:       make(map[string]fieldSlot),
		computed:     make(map[string]*cachedSlot),
	}
	if s.typ != nil {
		logger = logger.With("type", s.typ.Name())
	}
	s.logger = logger
	return s
}

// Type returns the class-level table, or nil when self's type was never
// defined.
func (s *Scope) Type() *Type {
	return s.typ
}

// Initializing reports whether the scope is still in its initializing
// window.
func (s *Scope) Initializing() bool {
	return s.initializing
}

// BeginInit reopens the initializing window.
func (s *Scope) BeginInit() {
	s.initializing = true
}

// EndInit closes the initializing window and marks every computed slot
// dirty, so values derived from the initial field writes are recomputed on
// first read.
func (s *Scope) EndInit() {
	s.initializing = false
	s.Invalidate()
}

// Invalidate marks every computed slot dirty.
func (s *Scope) Invalidate() {
	for _, sl := range s.slots {
		sl.invalidate()
	}
}

// Reset drops every cached computed value.
func (s *Scope) Reset() {
	for _, sl := range s.slots {
		sl.reset()
	}
}

// Names returns the field names in declaration order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns the value of the named field.
func (s *Scope) Get(name string) (any, bool) {
	f, ok := s.fields[name]
	if !ok {
		return nil, false
	}
	return f.getAny(), true
}

// Set writes the named field with the full write contract of Field.Set.
// A nil value writes the field's zero value.
func (s *Scope) Set(name string, v any) error {
	f, ok := s.fields[name]
	if !ok {
		return errors.New(errors.CodeUnknownField).
			WithOp("Scope.Set").
			WithDetailf("no reactive field %q", name)
	}
	return f.setAny(v)
}

// Snapshot copies the current field values.
func (s *Scope) Snapshot() State {
	st := make(State, len(s.fields))
	for name, f := range s.fields {
		st[name] = f.getAny()
	}
	return st
}

func (s *Scope) register(name string, f fieldSlot) {
	if _, dup := s.fields[name]; dup {
		s.logger.Warn("reactive: field redeclared", "field", name)
	} else {
		s.order = append(s.order, name)
	}
	s.fields[name] = f
}

func (s *Scope) addSlot(sl slot) {
	s.slots = append(s.slots, sl)
}

// changed runs the post-store half of a write: invalidate, watchers, then
// an update request if the host is mounted.
func (s *Scope) changed(name string, newValue, oldValue any) {
	s.Invalidate()
	for _, w := range s.typ.watchersFor(name) {
		err := errors.Catch("watch "+name+"."+w.name, func() error {
			return w.fn(s.self, newValue, oldValue)
		})
		if err != nil {
			metrics.RecordWatcherFailure()
			s.logger.Error("reactive: watcher failed",
				"field", name,
				"watcher", w.name,
				"error", err,
			)
		}
	}
	if s.host != nil && s.host.IsMounted() {
		s.host.RequestUpdate(name)
	}
}
