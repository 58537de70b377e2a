package demo

import (
	"context"
	"strconv"

	"golang.org/x/net/html"

	"github.com/vango-dev/kinetic/pkg/component"
	"github.com/vango-dev/kinetic/pkg/dom"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// ExternalMountAttr marks the Widget's externally managed region.
const ExternalMountAttr = "data-external-mount"

// Widget hosts a node tree that it does not render itself, the way a page
// hosts a chart or map library. The hosted nodes survive every re-render.
type Widget struct {
	*component.Base

	label  *reactive.Field[string]
	points int
	chart  *html.Node
}

// NewWidget creates a Widget with the given heading.
func NewWidget(label string, opts ...component.Option) *Widget {
	w := &Widget{}
	w.Base = component.New(w, opts...)
	w.label = reactive.NewField(w.Scope(), "label", label)
	return w
}

// Label returns the heading.
func (w *Widget) Label() string { return w.label.Get() }

// Rename changes the heading.
func (w *Widget) Rename(label string) { w.label.Set(label) }

// Chart returns the externally managed node, or nil before mount.
func (w *Widget) Chart() *html.Node { return w.chart }

// Plot adds n points to the chart by mutating it directly, outside the
// render cycle.
func (w *Widget) Plot(n int) {
	if w.chart == nil {
		return
	}
	w.points += n
	dom.SetAttr(w.chart, "data-points", strconv.Itoa(w.points))
}

// OnMount implements component.Mounter.
func (w *Widget) OnMount(ctx context.Context) error {
	w.chart = dom.MaterializeRoot(vdom.Canvas(vdom.Class("chart"), vdom.Data("points", "0")))
	w.GetRef("mount").AppendChild(w.chart)
	return nil
}

// OnUnmount implements component.Unmounter.
func (w *Widget) OnUnmount() {
	w.chart = nil
	w.points = 0
}

// Render implements component.Renderer.
func (w *Widget) Render() *vdom.VNode {
	return vdom.Section(vdom.Class("widget"),
		vdom.H3(vdom.Text(w.label.Get())),
		vdom.Div(w.CreateRef("mount"), vdom.Preserve(ExternalMountAttr, "chart")),
	)
}
