package demo

import (
	"context"
	"time"

	"github.com/vango-dev/kinetic/pkg/component"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// DefaultTick is the Clock's default interval.
const DefaultTick = time.Second

// Clock ticks on a loop timer while mounted.
type Clock struct {
	*component.Base

	interval time.Duration
	timer    loop.TimerID
	ticks    *reactive.Field[int]
	now      *reactive.Field[time.Time]
}

// NewClock creates a Clock that ticks every interval, or DefaultTick when
// interval is not positive.
func NewClock(interval time.Duration, opts ...component.Option) *Clock {
	if interval <= 0 {
		interval = DefaultTick
	}
	c := &Clock{interval: interval}
	c.Base = component.New(c, opts...)
	c.ticks = reactive.NewField(c.Scope(), "ticks", 0)
	c.now = reactive.NewField(c.Scope(), "now", time.Time{})
	return c
}

// Ticks returns the number of ticks since mount.
func (c *Clock) Ticks() int { return c.ticks.Get() }

// BeforeMount implements component.BeforeMounter.
func (c *Clock) BeforeMount(ctx context.Context) error {
	c.now.Set(c.Runtime().Loop().Now())
	return nil
}

// OnMount implements component.Mounter.
func (c *Clock) OnMount(ctx context.Context) error {
	c.schedule()
	c.Subscribe(func() {
		c.Runtime().Loop().ClearTimeout(c.timer)
	})
	return nil
}

func (c *Clock) schedule() {
	c.timer = c.Runtime().Loop().SetTimeout(c.interval, c.tick)
}

func (c *Clock) tick() {
	if !c.IsMounted() {
		return
	}
	c.BatchUpdate(func() {
		c.ticks.Update(func(n int) int { return n + 1 })
		c.now.Set(c.Runtime().Loop().Now())
	})
	c.schedule()
}

// Render implements component.Renderer.
func (c *Clock) Render() *vdom.VNode {
	return vdom.Div(vdom.Class("clock"),
		vdom.Span(vdom.Class("time"), vdom.Text(c.now.Get().UTC().Format("15:04:05"))),
		vdom.Span(vdom.Class("ticks"), vdom.Textf(" tick %d", c.ticks.Get())),
	)
}
