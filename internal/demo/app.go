package demo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/net/html"

	"github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/component"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// PortalAttr marks the App's child mount points.
const PortalAttr = "data-portal"

// App composes a Counter, a Clock, and a Widget. Each child is mounted into
// a preserved region of the App's own tree, so re-rendering the App never
// touches the children's nodes.
type App struct {
	*component.Base

	title *reactive.Field[string]

	Counter *Counter
	Clock   *Clock
	Widget  *Widget
}

// Option configures the App.
type Option func(*appConfig)

type appConfig struct {
	title string
	tick  time.Duration
}

// WithTitle sets the App heading.
func WithTitle(title string) Option {
	return func(c *appConfig) { c.title = title }
}

// WithTick sets the Clock interval.
func WithTick(d time.Duration) Option {
	return func(c *appConfig) { c.tick = d }
}

// NewApp creates the App and its children. copts are applied to every
// component, so they share one runtime.
func NewApp(copts []component.Option, opts ...Option) *App {
	cfg := appConfig{title: "kinetic demo", tick: DefaultTick}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &App{}
	a.Base = component.New(a, copts...)
	a.title = reactive.NewField(a.Scope(), "title", cfg.title)

	a.Counter = NewCounter(append(copts, component.WithProps(component.Props{"label": "Clicks"}))...)
	a.Clock = NewClock(cfg.tick, copts...)
	a.Widget = NewWidget("Chart", copts...)
	return a
}

// Title returns the heading.
func (a *App) Title() string { return a.title.Get() }

// SetTitle changes the heading.
func (a *App) SetTitle(title string) { a.title.Set(title) }

type child interface {
	Mount(ctx context.Context, container *html.Node) error
	Unmount()
}

type region struct {
	ref   string
	child child
}

func (a *App) regions() []region {
	return []region{
		{"counter", a.Counter},
		{"clock", a.Clock},
		{"widget", a.Widget},
	}
}

// OnMount mounts the children into their regions. If one fails, the ones
// already mounted are unmounted again.
func (a *App) OnMount(ctx context.Context) error {
	regions := a.regions()
	for i, r := range regions {
		if err := r.child.Mount(ctx, a.GetRef(r.ref)); err != nil {
			for _, done := range regions[:i] {
				done.child.Unmount()
			}
			return errors.FromError(err, errors.CodeHookFailed).
				WithOp("App.OnMount").
				WithDetailf("mounting %s", r.ref)
		}
	}
	return nil
}

// BeforeUnmount unmounts the children.
func (a *App) BeforeUnmount() {
	for _, r := range a.regions() {
		r.child.Unmount()
	}
}

// Render implements component.Renderer.
func (a *App) Render() *vdom.VNode {
	region := func(name string) *vdom.VNode {
		return vdom.Section(vdom.Class("region", name), a.CreateRef(name), vdom.Preserve(PortalAttr, name))
	}
	return vdom.Main(vdom.Class("app"),
		vdom.H1(vdom.Text(a.title.Get())),
		region("counter"),
		region("clock"),
		region("widget"),
	)
}

// Actions returns the App's named operations.
func (a *App) Actions() map[string]func() error {
	return map[string]func() error{
		"increment": func() error { a.Counter.Increment(); return nil },
		"decrement": func() error { a.Counter.Decrement(); return nil },
		"reset":     func() error { a.Counter.Reset(); return nil },
		"step":      func() error { a.Counter.SetStep(a.Counter.Step() + 1); return nil },
		"plot":      func() error { a.Widget.Plot(a.Counter.Count()); return nil },
		"rename": func() error {
			a.Widget.Rename(fmt.Sprintf("Chart #%d", a.Counter.Count()))
			return nil
		},
		"retitle": func() error {
			a.SetTitle(fmt.Sprintf("kinetic demo (%d)", a.Clock.Ticks()))
			return nil
		},
	}
}

// ActionNames returns the action names, sorted.
func (a *App) ActionNames() []string {
	names := make([]string, 0, 8)
	for name := range a.Actions() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
