package reconcile

import (
	"log/slog"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/net/html"

	"github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/dom"
	"github.com/vango-dev/kinetic/pkg/metrics"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// DefaultPreserveAttrs are the marker attributes preserved when no
// allow-list is configured.
var DefaultPreserveAttrs = []string{
	"data-preserve",
	"data-portal",
	"data-external-mount",
}

// Patcher is the external patch collaborator. Patch reconciles the live
// node at container's index-th child from prev to next in place; it may
// replace that node wholesale.
type Patcher interface {
	Patch(container *html.Node, prev, next *vdom.VNode, index int) error
}

// PatcherFunc adapts a function to Patcher.
type PatcherFunc func(container *html.Node, prev, next *vdom.VNode, index int) error

// Patch implements Patcher.
func (f PatcherFunc) Patch(container *html.Node, prev, next *vdom.VNode, index int) error {
	return f(container, prev, next, index)
}

// Key identifies a preserved region by its marker attribute and value.
type Key struct {
	Attr  string
	Value string
}

// Record is a captured preserved region: the element that hosted it and the
// children detached from it.
type Record struct {
	Element  *html.Node
	Children []*html.Node
}

// Adapter hands rendered trees to a Patcher and carries externally mounted
// subtrees across the patch.
type Adapter struct {
	patcher Patcher
	attrs   mapset.Set[string]
	logger  *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithPreserveAttrs replaces the marker allow-list.
func WithPreserveAttrs(attrs ...string) Option {
	return func(a *Adapter) {
		a.attrs = mapset.NewThreadUnsafeSet(attrs...)
	}
}

// WithLogger sets the logger used to report dropped regions.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Adapter. A nil patcher falls back to dom.Morph.
func New(p Patcher, opts ...Option) *Adapter {
	if p == nil {
		p = dom.Morph{}
	}
	a := &Adapter{
		patcher: p,
		attrs:   mapset.NewThreadUnsafeSet(DefaultPreserveAttrs...),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Patcher returns the underlying patch collaborator.
func (a *Adapter) Patcher() Patcher {
	return a.patcher
}

// PreserveAttrs returns the marker allow-list in sorted order.
func (a *Adapter) PreserveAttrs() []string {
	out := a.attrs.ToSlice()
	sort.Strings(out)
	return out
}

// Materialize builds the live root node for a freshly rendered tree.
func (a *Adapter) Materialize(tree *vdom.VNode) *html.Node {
	return dom.MaterializeRoot(tree)
}

// Capture detaches the children of every element under root that carries an
// allow-listed attribute and records them by marker. Nested regions are
// captured with their outer region.
func (a *Adapter) Capture(root *html.Node) map[Key]*Record {
	if root == nil || a.attrs.Cardinality() == 0 {
		return nil
	}
	var records map[Key]*Record
	dom.WalkElements(root, func(n *html.Node) bool {
		key, ok := a.marker(n)
		if !ok {
			return true
		}
		if records == nil {
			records = make(map[Key]*Record)
		}
		if _, dup := records[key]; dup {
			a.logger.Warn("reconcile: duplicate preserved marker", "attr", key.Attr, "value", key.Value)
			return false
		}
		records[key] = &Record{Element: n, Children: dom.RemoveChildren(n)}
		return false
	})
	return records
}

// Restore re-locates each recorded marker in the patched tree and puts its
// saved children back. Regions whose marker no longer exists are dropped
// and returned as an E121 error; the rest are still restored.
func (a *Adapter) Restore(root *html.Node, records map[Key]*Record) error {
	if len(records) == 0 {
		return nil
	}
	var missing []string
	for key, rec := range records {
		target := dom.FindByAttr(root, key.Attr, key.Value)
		if target == nil {
			missing = append(missing, key.Attr+"="+key.Value)
			continue
		}
		dom.ReplaceChildren(target, rec.Children)
	}
	metrics.RecordPreserved("restored", len(records)-len(missing))
	if len(missing) == 0 {
		return nil
	}
	metrics.RecordPreserved("dropped", len(missing))
	sort.Strings(missing)
	return errors.New(errors.CodePreserveMissing).
		WithOp("reconcile.Restore").
		WithDetailf("Missing markers: %v", missing)
}

// Apply captures preserved regions under the current root, runs the patch,
// re-resolves the root by index within container, and restores the regions.
// It returns the (possibly replaced) root node. A failed restore is logged;
// only a failed patch is returned as an error.
func (a *Adapter) Apply(container *html.Node, prev, next *vdom.VNode, index int) (*html.Node, error) {
	records := a.Capture(dom.ChildAt(container, index))

	if err := a.patcher.Patch(container, prev, next, index); err != nil {
		// Put the regions back on whatever root survived.
		if rerr := a.Restore(dom.ChildAt(container, index), records); rerr != nil {
			a.logger.Warn("reconcile: restore after failed patch", "error", rerr)
		}
		return dom.ChildAt(container, index), errors.FromError(err, errors.CodePatchFailed).
			WithOp("reconcile.Apply")
	}

	root := dom.ChildAt(container, index)
	if err := a.Restore(root, records); err != nil {
		a.logger.Warn("reconcile: preserved region dropped", "error", err)
	}
	return root, nil
}

func (a *Adapter) marker(n *html.Node) (Key, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && a.attrs.Contains(attr.Key) {
			return Key{Attr: attr.Key, Value: attr.Val}, true
		}
	}
	return Key{}, false
}
