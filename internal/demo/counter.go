package demo

import (
	"fmt"

	"github.com/vango-dev/kinetic/pkg/component"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

const historySize = 5

var counterType = reactive.Define[Counter]("Counter")

func init() {
	must(counterType.WatchMethod("count", "OnCount"))
	must(reactive.Watch(counterType, "step", "clampStep", func(c *Counter, step, _ int) {
		if step < 1 {
			c.step.Set(1)
		}
	}))
	must(counterType.ComputedMethod("Parity"))
	must(reactive.DefineComputed(counterType, "doubled", func(c *Counter) int {
		return c.count.Get() * 2
	}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Counter is a click counter with a bounded change history.
type Counter struct {
	*component.Base

	count   *reactive.Field[int]
	step    *reactive.Field[int]
	history *reactive.Field[[]string]
}

// NewCounter creates a Counter. The "label" prop sets its heading.
func NewCounter(opts ...component.Option) *Counter {
	c := &Counter{}
	c.Base = component.New(c, opts...)
	c.count = reactive.NewField(c.Scope(), "count", 0)
	c.step = reactive.NewField(c.Scope(), "step", 1)
	c.history = reactive.NewField[[]string](c.Scope(), "history", nil)
	return c
}

// Count returns the current value.
func (c *Counter) Count() int { return c.count.Get() }

// Step returns the increment.
func (c *Counter) Step() int { return c.step.Get() }

// History returns the most recent changes, oldest first.
func (c *Counter) History() []string { return c.history.Get() }

// Increment adds the step.
func (c *Counter) Increment() {
	c.count.Update(func(n int) int { return n + c.step.Get() })
}

// Decrement subtracts the step.
func (c *Counter) Decrement() {
	c.count.Update(func(n int) int { return n - c.step.Get() })
}

// SetStep changes the increment. Values below 1 are clamped to 1.
func (c *Counter) SetStep(n int) { c.step.Set(n) }

// Reset zeroes the count and clears the history in one update.
func (c *Counter) Reset() {
	c.BatchUpdate(func() {
		c.count.Set(0)
		c.history.Set(nil)
	})
}

// OnCount records each change of count.
func (c *Counter) OnCount(newValue, oldValue int) {
	h := append(append([]string(nil), c.history.Get()...), fmt.Sprintf("%d → %d", oldValue, newValue))
	if len(h) > historySize {
		h = h[len(h)-historySize:]
	}
	c.history.Set(h)
}

// Parity reports whether count is even or odd.
func (c *Counter) Parity() string {
	if c.count.Get()%2 == 0 {
		return "even"
	}
	return "odd"
}

// Styles implements component.Styler.
func (c *Counter) Styles() string {
	return `
.counter { font-family: system-ui, sans-serif; padding: 1rem; }
.counter .value { font-size: 2rem; margin: 0; }
.counter .meta { color: #666; }
@media (max-width: 600px) {
  .counter { padding: 0.5rem; }
}
`
}

// Render implements component.Renderer.
func (c *Counter) Render() *vdom.VNode {
	label, _ := c.Props()["label"].(string)
	if label == "" {
		label = "Counter"
	}
	return vdom.Div(vdom.Class("counter"),
		vdom.H2(vdom.Text(label)),
		vdom.P(vdom.Class("value"), vdom.AriaLive("polite"), vdom.Textf("%d", c.count.Get())),
		vdom.P(vdom.Class("meta"), vdom.Textf("doubled %d, %s, step %d",
			reactive.Read[int](c.Scope(), "doubled"),
			reactive.Read[string](c.Scope(), "Parity"),
			c.step.Get(),
		)),
		vdom.When(len(c.history.Get()) > 0, func() *vdom.VNode {
			return vdom.Ul(vdom.Class("history"),
				vdom.Range(c.history.Get(), func(entry string, i int) *vdom.VNode {
					return vdom.Li(vdom.Text(entry))
				}),
			)
		}),
	)
}
