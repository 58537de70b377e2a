// Package scheduler batches update work onto the event loop.
//
// Schedule arms a flush in two steps: a microtask, which lets the rest of
// the current task enqueue more work, then a frame callback. Every job queued
// before the frame runs in that one flush, in enqueue order, each inside its
// own failure boundary.
//
//	s := scheduler.New(l)
//	s.Schedule(job)
//	s.Schedule(job) // collapses with the first
//	l.Drain()       // one flush, job runs once
//
// Default returns a process-wide instance bound to loop.Default().
package scheduler
