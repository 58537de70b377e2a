package main

import (
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"github.com/vango-dev/kinetic/internal/config"
	"github.com/vango-dev/kinetic/internal/demo"
	"github.com/vango-dev/kinetic/pkg/component"
	"github.com/vango-dev/kinetic/pkg/dom"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/reconcile"
	"github.com/vango-dev/kinetic/pkg/scheduler"
	"github.com/vango-dev/kinetic/pkg/styles"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// session is one document with its runtime and the demo app.
type session struct {
	loop      *loop.Loop
	scheduler *scheduler.Scheduler
	doc       *dom.Document
	runtime   *component.Runtime
	app       *demo.App
	patches   int
}

type countingPatcher struct {
	reconcile.Patcher
	n *int
}

func (p countingPatcher) Patch(container *html.Node, prev, next *vdom.VNode, index int) error {
	*p.n++
	return p.Patcher.Patch(container, prev, next, index)
}

// newSession wires a runtime from cfg. A manual session runs on a manual
// clock and is driven with Drain and Advance.
func newSession(cfg *config.Config, logger *slog.Logger, manual bool, tick time.Duration) *session {
	s := &session{doc: dom.NewDocument()}
	if manual {
		s.loop, _ = loop.NewManual(cfg.LoopOptions(logger)...)
	} else {
		s.loop = loop.New(cfg.LoopOptions(logger)...)
	}
	s.scheduler = scheduler.New(s.loop, scheduler.WithLogger(logger))
	s.runtime = &component.Runtime{
		Scheduler: s.scheduler,
		Adapter:   reconcile.New(countingPatcher{Patcher: dom.Morph{}, n: &s.patches}, cfg.AdapterOptions(logger)...),
		Styles:    styles.NewRegistry(s.doc.Head),
		Logger:    logger,
	}
	s.app = demo.NewApp([]component.Option{component.WithRuntime(s.runtime)}, demo.WithTick(tick))
	return s
}
