package component

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/kinetic/pkg/dom"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/reconcile"
	"github.com/vango-dev/kinetic/pkg/scheduler"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

type leaf struct {
	*Base
}

func (l *leaf) Render() *vdom.VNode { return vdom.Span(vdom.Text("leaf")) }

func newLeaf() (*leaf, *loop.Loop) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l, _ := loop.NewManual(loop.WithLogger(logger))
	rt := &Runtime{
		Scheduler: scheduler.New(l, scheduler.WithLogger(logger)),
		Adapter:   reconcile.New(dom.Morph{}),
		Logger:    logger,
	}
	c := &leaf{}
	c.Base = New(c, WithRuntime(rt))
	return c, l
}

func TestBatchDepthBalanced(t *testing.T) {
	c, l := newLeaf()
	if err := c.Mount(context.Background(), dom.NewDocument().Body); err != nil {
		t.Fatal(err)
	}

	c.BatchUpdate(func() {
		c.BatchUpdate(func() {})
		if c.batchDepth != 1 {
			t.Errorf("inner batch left depth %d, want 1", c.batchDepth)
		}
	})
	if c.batchDepth != 0 || !c.scheduled {
		t.Errorf("depth = %d, scheduled = %v", c.batchDepth, c.scheduled)
	}
	l.Drain()

	c.BatchUpdate(func() { c.Unmount() })
	if c.batchDepth != 0 {
		t.Errorf("unmount inside a batch left depth %d", c.batchDepth)
	}
	if c.scheduled || !l.Idle() {
		t.Error("terminated instance should not schedule an update")
	}
}
