// Package loop provides the cooperative, single-goroutine event loop that
// the runtime schedules its work on.
//
// The loop reproduces the three deferral tiers a browser host offers:
// tasks, microtasks, and display-sync (frame) callbacks. Everything that
// touches component state runs on the loop goroutine, so the runtime needs
// re-entrancy guards but no locks.
//
// # Driving the loop
//
// In a long-running process, call Run on a dedicated goroutine and enter the
// loop from elsewhere with Submit:
//
//	l := loop.New(loop.WithFrameInterval(16 * time.Millisecond))
//	go l.Run(ctx)
//	l.Submit(func() { counter.Count.Set(5) })
//
// Tests and headless tools drive the loop by hand:
//
//	l, clock := loop.NewManual()
//	l.QueueMicrotask(a)
//	l.RequestFrame(b)
//	l.Drain()            // runs a, then b
//	l.Advance(time.Second) // fires due timers
package loop
