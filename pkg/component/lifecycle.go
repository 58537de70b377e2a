package component

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/dom"
	"github.com/vango-dev/kinetic/pkg/metrics"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// Mount renders the component and appends its root to container.
//
// Mount fails synchronously when container is nil. Mounting a mounted
// instance or an unmounted (terminated) one logs a warning and does nothing.
// Any failure during the sequence reverts to the unmounted state and is
// passed to OnError when the component implements ErrorHandler; otherwise it
// is returned.
func (b *Base) Mount(ctx context.Context, container *html.Node) error {
	if container == nil {
		return errors.New(errors.CodeMissingContainer).
			WithOp(b.name + ".Mount").
			WithComponent(b.name)
	}
	if b.terminated {
		b.logger.Warn("component: remount rejected", "code", errors.CodeRemount)
		return nil
	}
	if b.status != StatusUnmounted {
		b.logger.Warn("component: already mounted", "code", errors.CodeAlreadyMounted, "status", b.status.String())
		return nil
	}

	ctx, span := b.rt.Tracer.Start(ctx, "component.Mount",
		trace.WithAttributes(
			attribute.String("kinetic.component", b.name),
			attribute.String("kinetic.id", b.id),
		),
	)
	defer span.End()

	err := b.mount(ctx, container)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordMount(b.name, "error")
		return err
	}
	span.SetStatus(codes.Ok, "")
	metrics.RecordMount(b.name, "ok")
	return nil
}

func (b *Base) mount(ctx context.Context, container *html.Node) error {
	b.status = StatusInitializing
	b.mountCleanups = len(b.cleanups)
	b.scope.BeginInit()

	if h, ok := b.self.(BeforeMounter); ok {
		err := errors.Catch(b.name+".BeforeMount", func() error { return h.BeforeMount(ctx) })
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			return b.failMount(err, PhaseBeforeMount)
		}
	}
	b.scope.EndInit()

	tree, err := b.render()
	if err != nil {
		return b.failMount(err, PhaseRender)
	}
	root := b.rt.Adapter.Materialize(tree)

	if b.scopeID != "" {
		if css := b.self.(Styler).Styles(); css != "" {
			id, err := b.rt.Styles.Inject(css, b.scopeID)
			if err != nil {
				return b.failMount(err, PhaseMount)
			}
			b.styleID = id
		}
	}

	container.AppendChild(root)
	b.container = container
	b.root = root
	b.tree = tree
	b.status = StatusMounted
	b.afterRender()

	if h, ok := b.self.(Mounter); ok {
		err := errors.Catch(b.name+".OnMount", func() error { return h.OnMount(ctx) })
		if err != nil {
			return b.failMount(err, PhaseMount)
		}
	}
	b.logger.Debug("component: mounted")
	return nil
}

// failMount reverts a partial mount and routes err to the error path.
// Cleanups registered during the attempt run, and pending timers and state
// callbacks are dropped, so the instance can be mounted again from scratch.
func (b *Base) failMount(err error, phase Phase) error {
	b.batchKeys.Clear()
	b.callbacks = nil
	b.clearTimers()

	cleanups := b.cleanups[b.mountCleanups:]
	b.cleanups = b.cleanups[:b.mountCleanups:b.mountCleanups]
	for _, fn := range cleanups {
		b.isolate(PhaseCleanup, b.name+".cleanup", fn)
	}

	dom.Detach(b.root)
	if b.styleID != "" {
		b.rt.Styles.Remove(b.styleID)
		b.styleID = ""
	}
	b.root = nil
	b.tree = nil
	b.container = nil
	b.scheduled = false
	b.refs = make(map[string]*html.Node)
	b.status = StatusUnmounted
	b.scope.EndInit()
	return b.fail(err, phase)
}

// Update requests a re-render. It does nothing when a one-shot skip is set,
// when the instance is not mounted, while an update is running, or when an
// update is already scheduled. Inside BatchUpdate the request is deferred
// to the end of the batch. key is kept for diagnostics only.
func (b *Base) Update(key ...string) {
	if b.skipNext {
		b.skipNext = false
		return
	}
	if b.status != StatusMounted || b.updating {
		return
	}
	for _, k := range key {
		if k != "" {
			b.batchKeys.Add(k)
		}
	}
	if b.batchDepth > 0 {
		return
	}
	if b.scheduled {
		return
	}
	b.scheduled = true
	b.rt.Scheduler.Schedule(b.job)
}

// SkipNextUpdate makes the next Update call a no-op.
func (b *Base) SkipNextUpdate() {
	b.skipNext = true
}

// ForceUpdate runs the update routine now, bypassing the scheduler. A
// pending scheduled update is absorbed. It is a no-op while not mounted or
// while another update is running.
func (b *Base) ForceUpdate(ctx context.Context) error {
	if b.status != StatusMounted || b.updating {
		return nil
	}
	b.scheduled = false
	return b.performUpdate(ctx)
}

// BatchUpdate runs fn with update requests suppressed, then requests exactly
// one update, whether or not fn wrote anything. Nested batches update once,
// when the outermost returns.
func (b *Base) BatchUpdate(fn func()) {
	b.batchDepth++
	func() {
		defer func() {
			if b.batchDepth > 0 {
				b.batchDepth--
			}
		}()
		if fn != nil {
			fn()
		}
	}()
	if b.batchDepth > 0 {
		return
	}
	b.Update()
}

// runScheduled is the scheduler job. It observes cancellation by Unmount
// through the scheduled flag.
func (b *Base) runScheduled() error {
	if !b.scheduled {
		return nil
	}
	b.scheduled = false
	return b.performUpdate(context.Background())
}

func (b *Base) performUpdate(ctx context.Context) error {
	if b.status != StatusMounted || b.updating {
		return nil
	}

	keys := b.batchKeys.ToSlice()
	b.batchKeys.Clear()

	ctx, span := b.rt.Tracer.Start(ctx, "component.Update",
		trace.WithAttributes(
			attribute.String("kinetic.component", b.name),
			attribute.String("kinetic.id", b.id),
			attribute.StringSlice("kinetic.keys", keys),
		),
	)
	defer span.End()

	start := time.Now()
	b.updating = true
	b.status = StatusUpdating
	outcome, err := b.update(ctx)
	b.updating = false
	if b.status == StatusUpdating {
		b.status = StatusMounted
	}
	metrics.RecordUpdate(b.name, outcome, time.Since(start))

	// The state behind the callbacks is applied whatever the outcome.
	b.runCallbacks()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("kinetic.outcome", outcome))
	return nil
}

// update is the body of the update routine. It returns the metrics outcome.
func (b *Base) update(ctx context.Context) (string, error) {
	state := b.scope.Snapshot()
	if d, ok := b.self.(UpdateDecider); ok && !d.ShouldUpdate(b.renderedProps, b.renderedState) {
		b.renderedProps, b.renderedState = b.props, state
		return "skipped", nil
	}

	if h, ok := b.self.(BeforeUpdater); ok {
		err := errors.Catch(b.name+".BeforeUpdate", func() error { return h.BeforeUpdate(ctx) })
		if err != nil {
			return "error", b.fail(err, PhaseBeforeUpdate)
		}
		if b.status != StatusUpdating {
			return "cancelled", nil
		}
	}

	index := dom.IndexOf(b.container, b.root)
	if index < 0 {
		err := errors.New(errors.CodePatchFailed).
			WithOp(b.name + ".Update").
			WithDetail("The component root is no longer attached to its container.")
		return "error", b.fail(err, PhasePatch)
	}

	b.preserved = b.rt.Adapter.Capture(b.root)

	tree, err := b.render()
	if err != nil {
		b.restorePreserved(b.root)
		return "error", b.fail(err, PhaseRender)
	}

	if err := b.rt.Adapter.Patcher().Patch(b.container, b.tree, tree, index); err != nil {
		b.root = dom.ChildAt(b.container, index)
		b.restorePreserved(b.root)
		err = errors.FromError(err, errors.CodePatchFailed).WithOp(b.name + ".Patch")
		return "error", b.fail(err, PhasePatch)
	}

	b.root = dom.ChildAt(b.container, index)
	b.tree = tree
	b.restorePreserved(b.root)
	b.afterRender()

	if h, ok := b.self.(AfterUpdater); ok {
		err := errors.Catch(b.name+".AfterUpdate", func() error { h.AfterUpdate(); return nil })
		if err != nil {
			return "error", b.fail(err, PhaseAfterUpdate)
		}
	}
	return "ok", nil
}

func (b *Base) restorePreserved(root *html.Node) {
	records := b.preserved
	b.preserved = nil
	if err := b.rt.Adapter.Restore(root, records); err != nil {
		b.logger.Warn("component: preserved region dropped", "error", err)
	}
}

// render calls the component's Render inside a failure boundary and tags the
// root with the style scope.
func (b *Base) render() (*vdom.VNode, error) {
	var tree *vdom.VNode
	err := errors.Catch(b.name+".Render", func() error {
		tree = b.self.Render()
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.CodeRenderFailed).WithOp(b.name + ".Render").Wrap(err)
	}
	if tree == nil {
		return nil, errors.New(errors.CodeRenderFailed).
			WithOp(b.name + ".Render").
			WithDetail("Render returned nil.")
	}
	if b.scopeID != "" && tree.Kind == vdom.KindElement {
		tree.SetProp(vdom.ScopeAttr, b.scopeID)
	}
	return tree, nil
}

// afterRender records what was rendered and re-resolves refs.
func (b *Base) afterRender() {
	b.renderedProps = b.props
	b.renderedState = b.scope.Snapshot()
	b.refs = make(map[string]*html.Node)
	for _, n := range dom.FindAllWithAttr(b.root, vdom.RefAttr) {
		name, _ := dom.Attr(n, vdom.RefAttr)
		if _, dup := b.refs[name]; !dup {
			b.refs[name] = n
		}
	}
}

// Unmount tears the component down. It is a no-op unless the instance is
// mounted. Hooks and cleanups run in their own failure boundaries, so one
// failure never blocks the rest of the teardown. Unmount is terminal: the
// instance cannot be mounted again.
func (b *Base) Unmount() {
	if b.status != StatusMounted && b.status != StatusUpdating {
		return
	}
	b.status = StatusUnmounting
	defer func() {
		b.status = StatusUnmounted
		b.terminated = true
	}()

	if h, ok := b.self.(BeforeUnmounter); ok {
		b.isolate(PhaseBeforeUnmount, b.name+".BeforeUnmount", h.BeforeUnmount)
	}

	b.scheduled = false
	b.batchKeys.Clear()
	b.callbacks = nil
	b.clearTimers()

	if b.styleID != "" {
		b.rt.Styles.Remove(b.styleID)
		b.styleID = ""
	}

	cleanups := b.cleanups
	b.cleanups = nil
	for _, fn := range cleanups {
		b.isolate(PhaseCleanup, b.name+".cleanup", fn)
	}

	dom.Detach(b.root)
	b.root = nil
	b.tree = nil
	b.container = nil

	if h, ok := b.self.(Unmounter); ok {
		b.isolate(PhaseUnmount, b.name+".OnUnmount", h.OnUnmount)
	}

	b.refs = make(map[string]*html.Node)
	b.memos = make(map[string]memoEntry)
	b.preserved = nil
	b.scope.Reset()
	metrics.RecordUnmount(b.name)
	b.logger.Debug("component: unmounted")
}

// isolate runs fn and reports a failure without propagating it.
func (b *Base) isolate(phase Phase, op string, fn func()) {
	err := errors.Catch(op, func() error { fn(); return nil })
	if err != nil {
		b.report(err, phase)
	}
}

// fail is the shared error path for failures that may reach the caller:
// the error is reported, then returned unless the component handled it.
func (b *Base) fail(err error, phase Phase) error {
	e, handled := b.report(err, phase)
	if handled {
		return nil
	}
	return e
}

// report logs err, records it, and hands it to OnError. It returns the
// structured error and whether an ErrorHandler took it.
func (b *Base) report(err error, phase Phase) (*errors.Error, bool) {
	e := errors.FromError(err, errors.CodeHookFailed)
	if e.Component == "" {
		e.WithComponent(b.name)
	}
	b.logger.Error("component: "+string(phase)+" failed", "phase", string(phase), "error", e)
	metrics.RecordError(b.name, string(phase))

	h, ok := b.self.(ErrorHandler)
	if !ok {
		return e, false
	}
	herr := errors.Catch(b.name+".OnError", func() error {
		h.OnError(e, ErrorInfo{Component: b.name, Phase: phase})
		return nil
	})
	if herr != nil {
		b.logger.Error("component: error handler failed", "error", herr)
	}
	return e, true
}
