package component

import (
	"log/slog"
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/reconcile"
	"github.com/vango-dev/kinetic/pkg/scheduler"
	"github.com/vango-dev/kinetic/pkg/styles"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// TracerName is the OpenTelemetry tracer used for lifecycle spans.
const TracerName = "github.com/vango-dev/kinetic/pkg/component"

// Runtime bundles the collaborators a component talks to. Components that
// render into the same document share one Runtime.
type Runtime struct {
	// Scheduler batches update routines. Defaults to scheduler.Default().
	Scheduler *scheduler.Scheduler

	// Adapter hands rendered trees to the patch collaborator.
	Adapter *reconcile.Adapter

	// Styles injects component stylesheets. Nil disables Styler support.
	Styles styles.Injector

	// Logger is the base logger for every component on this runtime.
	Logger *slog.Logger

	// Tracer opens lifecycle spans. Defaults to otel.Tracer(TracerName).
	Tracer trace.Tracer
}

// DefaultRuntime returns a Runtime wired to the process-wide scheduler and
// the default patch collaborator.
func DefaultRuntime() *Runtime {
	return (&Runtime{}).withDefaults()
}

func (rt *Runtime) withDefaults() *Runtime {
	out := *rt
	if out.Scheduler == nil {
		out.Scheduler = scheduler.Default()
	}
	if out.Adapter == nil {
		out.Adapter = reconcile.New(nil)
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Tracer == nil {
		out.Tracer = otel.Tracer(TracerName)
	}
	return &out
}

// Loop returns the loop the runtime's scheduler defers onto.
func (rt *Runtime) Loop() *loop.Loop {
	return rt.Scheduler.Loop()
}

// Option configures a component at construction.
type Option func(*Base)

// WithRuntime sets the runtime. Missing collaborators fall back to the
// defaults.
func WithRuntime(rt *Runtime) Option {
	return func(b *Base) {
		if rt != nil {
			b.rt = rt.withDefaults()
		}
	}
}

// WithProps sets the initial props.
func WithProps(p Props) Option {
	return func(b *Base) {
		b.props = copyProps(p, nil)
	}
}

// WithName overrides the component name used in logs, metrics, and the
// style scope id.
func WithName(name string) Option {
	return func(b *Base) {
		if name != "" {
			b.name = name
		}
	}
}

type memoEntry struct {
	value any
	deps  []any
}

// Base carries the lifecycle of one component instance. Embed a *Base in a
// component struct and construct it with New:
//
//	type Counter struct {
//		*component.Base
//		count *reactive.Field[int]
//	}
//
//	func NewCounter(opts ...component.Option) *Counter {
//		c := &Counter{}
//		c.Base = component.New(c, opts...)
//		c.count = reactive.NewField(c.Scope(), "count", 0)
//		return c
//	}
//
// Every method must be called from the goroutine driving the runtime's loop.
type Base struct {
	self   Renderer
	id     string
	name   string
	rt     *Runtime
	logger *slog.Logger
	scope  *reactive.Scope
	job    scheduler.Job

	props         Props
	renderedProps Props
	renderedState State

	status     Status
	terminated bool

	container *html.Node
	root      *html.Node
	tree      *vdom.VNode

	scheduled  bool
	updating   bool
	skipNext   bool
	batchDepth int
	batchKeys  mapset.Set[string]

	refs          map[string]*html.Node
	memos         map[string]memoEntry
	cleanups      []func()
	mountCleanups int
	preserved map[reconcile.Key]*reconcile.Record
	timers    map[loop.TimerID]struct{}
	callbacks []func()

	scopeID string
	styleID string
}

// New creates the lifecycle controller for self. The instance's reactive
// scope starts in its initializing window: field writes before Mount only
// store.
func New(self Renderer, opts ...Option) *Base {
	b := &Base{
		self:      self,
		id:        ulid.Make().String(),
		name:      typeName(self),
		props:     Props{},
		batchKeys: mapset.NewThreadUnsafeSet[string](),
		refs:      make(map[string]*html.Node),
		memos:     make(map[string]memoEntry),
		timers:    make(map[loop.TimerID]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rt == nil {
		b.rt = DefaultRuntime()
	}
	b.logger = b.rt.Logger.With("component", b.name, "id", b.id)
	b.scope = reactive.NewScope(self, b, b.logger)
	b.job = scheduler.NewJob(b.runScheduled)
	if _, ok := self.(Styler); ok && b.rt.Styles != nil {
		b.scopeID = styles.ScopeID(b.name)
	}
	return b
}

func typeName(self any) string {
	if t := reactive.TypeOf(self); t != nil {
		return t.Name()
	}
	rt := reflect.TypeOf(self)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Name() == "" {
		return "component"
	}
	return rt.Name()
}

// ID returns the instance id, a ULID assigned at construction.
func (b *Base) ID() string { return b.id }

// Name returns the component name.
func (b *Base) Name() string { return b.name }

// Scope returns the reactive scope fields are declared on.
func (b *Base) Scope() *reactive.Scope { return b.scope }

// Runtime returns the runtime the component is bound to.
func (b *Base) Runtime() *Runtime { return b.rt }

// Logger returns the component-scoped logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Status returns the lifecycle state.
func (b *Base) Status() Status { return b.status }

// Element returns the root node while mounted.
func (b *Base) Element() *html.Node { return b.root }

// Tree returns the tree of the last completed render.
func (b *Base) Tree() *vdom.VNode { return b.tree }

// IsMounted reports whether the root is attached and the component reacts
// to state changes.
func (b *Base) IsMounted() bool {
	return b.status == StatusMounted || b.status == StatusUpdating
}

// IsUnmounting reports whether Unmount is in progress.
func (b *Base) IsUnmounting() bool {
	return b.status == StatusUnmounting
}

// Props returns the current props. Treat the map as read-only; use SetProps
// to change it.
func (b *Base) Props() Props { return b.props }

// RequestUpdate implements reactive.Host.
func (b *Base) RequestUpdate(key string) {
	b.Update(key)
}

func copyProps(base, overlay Props) Props {
	out := make(Props, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
