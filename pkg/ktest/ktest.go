package ktest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/vango-dev/kinetic/pkg/component"
	"github.com/vango-dev/kinetic/pkg/dom"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/reconcile"
	"github.com/vango-dev/kinetic/pkg/scheduler"
	"github.com/vango-dev/kinetic/pkg/styles"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// Mountable is anything that can be mounted into a container.
type Mountable interface {
	Mount(ctx context.Context, container *html.Node) error
}

// CountingPatcher wraps a patch collaborator and counts patch passes.
type CountingPatcher struct {
	Inner reconcile.Patcher
	Calls int
	Trees []*vdom.VNode
}

// Patch implements reconcile.Patcher.
func (p *CountingPatcher) Patch(container *html.Node, prev, next *vdom.VNode, index int) error {
	p.Calls++
	p.Trees = append(p.Trees, next)
	return p.Inner.Patch(container, prev, next, index)
}

// Harness is an isolated, manually driven runtime with its own loop,
// scheduler, document, and style registry.
type Harness struct {
	Loop      *loop.Loop
	Clock     *loop.ManualClock
	Scheduler *scheduler.Scheduler
	Doc       *dom.Document
	Styles    *styles.Registry
	Patcher   *CountingPatcher
	Adapter   *reconcile.Adapter
	Runtime   *component.Runtime
	Logger    *slog.Logger
}

type config struct {
	logger        *slog.Logger
	preserveAttrs []string
	patcher       reconcile.Patcher
}

// Option configures a Harness.
type Option func(*config)

// WithLogger routes runtime logs to logger. By default logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithPreserveAttrs sets the reconciliation allow-list.
func WithPreserveAttrs(attrs ...string) Option {
	return func(c *config) { c.preserveAttrs = attrs }
}

// WithPatcher replaces the default dom.Morph patch collaborator. The
// harness still counts calls around it.
func WithPatcher(p reconcile.Patcher) Option {
	return func(c *config) { c.patcher = p }
}

// New builds a Harness.
func New(opts ...Option) *Harness {
	cfg := config{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		patcher: dom.Morph{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	l, clock := loop.NewManual(loop.WithLogger(cfg.logger))
	sched := scheduler.New(l, scheduler.WithLogger(cfg.logger))
	doc := dom.NewDocument()
	reg := styles.NewRegistry(doc.Head)
	patcher := &CountingPatcher{Inner: cfg.patcher}

	adapterOpts := []reconcile.Option{reconcile.WithLogger(cfg.logger)}
	if cfg.preserveAttrs != nil {
		adapterOpts = append(adapterOpts, reconcile.WithPreserveAttrs(cfg.preserveAttrs...))
	}
	adapter := reconcile.New(patcher, adapterOpts...)

	return &Harness{
		Loop:      l,
		Clock:     clock,
		Scheduler: sched,
		Doc:       doc,
		Styles:    reg,
		Patcher:   patcher,
		Adapter:   adapter,
		Logger:    cfg.logger,
		Runtime: &component.Runtime{
			Scheduler: sched,
			Adapter:   adapter,
			Styles:    reg,
			Logger:    cfg.logger,
		},
	}
}

// Option returns the component option binding a component to this harness.
func (h *Harness) Option() component.Option {
	return component.WithRuntime(h.Runtime)
}

// Mount mounts c into the document body and fails the test on error.
func (h *Harness) Mount(t testing.TB, c Mountable) {
	t.Helper()
	if err := c.Mount(context.Background(), h.Doc.Body); err != nil {
		t.Fatalf("mount: %v", err)
	}
}

// Flush runs the loop until it is idle and returns the frames executed.
func (h *Harness) Flush() int {
	return h.Loop.Drain()
}

// Advance moves the clock forward, firing due timers, then flushes.
func (h *Harness) Advance(d time.Duration) int {
	return h.Loop.Advance(d)
}

// Patches returns the number of patch passes so far.
func (h *Harness) Patches() int {
	return h.Patcher.Calls
}

// HTML returns the rendered body content.
func (h *Harness) HTML() string {
	return dom.RenderChildren(h.Doc.Body)
}

// Text returns the text content of the body.
func (h *Harness) Text() string {
	return dom.TextContent(h.Doc.Body)
}

// ExpectText asserts that the body text equals want.
func (h *Harness) ExpectText(t testing.TB, want string) {
	t.Helper()
	if got := h.Text(); got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

// ExpectContains asserts that the body HTML contains substr.
func (h *Harness) ExpectContains(t testing.TB, substr string) {
	t.Helper()
	if got := h.HTML(); !strings.Contains(got, substr) {
		t.Errorf("expected HTML to contain %q, got:\n%s", substr, truncate(got, 500))
	}
}

// ExpectPatches asserts the number of patch passes so far.
func (h *Harness) ExpectPatches(t testing.TB, want int) {
	t.Helper()
	if got := h.Patches(); got != want {
		t.Errorf("patches = %d, want %d", got, want)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
