package scheduler

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/kinetic/pkg/loop"
)

func newTestScheduler() (*Scheduler, *loop.Loop) {
	l, _ := loop.NewManual()
	return New(l), l
}

func TestScheduleDedupsJobs(t *testing.T) {
	s, l := newTestScheduler()
	runs := 0
	job := NewJob(func() error { runs++; return nil })

	s.Schedule(job)
	s.Schedule(job)
	s.Schedule(job)
	if s.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", s.Pending())
	}
	if runs != 0 {
		t.Fatal("job ran synchronously")
	}

	l.Drain()
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
	if s.FlushScheduled() || s.Flushing() {
		t.Error("flags should be clear after flush")
	}
}

func TestJobFuncIsNotDeduped(t *testing.T) {
	s, l := newTestScheduler()
	runs := 0
	var fn JobFunc = func() error { runs++; return nil }
	s.Schedule(fn)
	s.Schedule(fn)
	l.Drain()
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestFlushWaitsForMicrotaskThenFrame(t *testing.T) {
	s, l := newTestScheduler()
	var order []string

	l.Submit(func() {
		s.Schedule(NewJob(func() error { order = append(order, "job"); return nil }))
		l.QueueMicrotask(func() { order = append(order, "microtask") })
		order = append(order, "task")
	})
	l.Submit(func() { order = append(order, "task2") })

	l.Drain()
	want := []string{"task", "microtask", "task2", "job"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestFlushIsolatesFailuresAndKeepsOrder(t *testing.T) {
	s, l := newTestScheduler()
	var order []int
	s.Schedule(NewJob(func() error { order = append(order, 1); return nil }))
	s.Schedule(NewJob(func() error { order = append(order, 2); return errors.New("boom") }))
	s.Schedule(NewJob(func() error { order = append(order, 3); panic("bad") }))
	s.Schedule(NewJob(func() error { order = append(order, 4); return nil }))

	var stats FlushStats
	s.OnFlush(func(fs FlushStats) { stats = fs })

	l.Drain()
	if !reflect.DeepEqual(order, []int{1, 2, 3, 4}) {
		t.Errorf("order = %v, want [1 2 3 4]", order)
	}
	if stats.Jobs != 4 || stats.Failures != 2 {
		t.Errorf("stats = %+v, want 4 jobs 2 failures", stats)
	}
}

func TestScheduleDuringFlushDefersToNextFrame(t *testing.T) {
	s, l := newTestScheduler()
	var frames []uint64

	second := NewJob(func() error {
		frames = append(frames, l.FrameCount())
		return nil
	})
	s.Schedule(NewJob(func() error {
		frames = append(frames, l.FrameCount())
		s.Schedule(second)
		if s.Pending() != 0 {
			t.Error("job scheduled during flush should not join the running flush")
		}
		return nil
	}))

	l.Drain()
	if len(frames) != 2 {
		t.Fatalf("ran %d jobs, want 2", len(frames))
	}
	if frames[1] <= frames[0] {
		t.Errorf("re-scheduled job ran in frame %d, first in %d", frames[1], frames[0])
	}
}

func TestFlushSyncBypassesQueue(t *testing.T) {
	s, _ := newTestScheduler()
	queued := 0
	s.Schedule(NewJob(func() error { queued++; return nil }))

	ran := false
	s.FlushSync(func() { ran = true })
	if !ran {
		t.Error("FlushSync should run immediately")
	}
	if queued != 0 || s.Pending() != 1 {
		t.Error("FlushSync should not drain pending jobs")
	}
}

func TestClearDropsPending(t *testing.T) {
	s, l := newTestScheduler()
	runs := 0
	s.Schedule(NewJob(func() error { runs++; return nil }))
	s.Clear()
	if s.Pending() != 0 || s.FlushScheduled() {
		t.Error("Clear should reset queue and flags")
	}
	l.Drain()
	if runs != 0 {
		t.Error("cleared job ran")
	}

	s.Schedule(NewJob(func() error { runs++; return nil }))
	l.Drain()
	if runs != 1 {
		t.Error("scheduler should work after Clear")
	}
}

func TestEmptyFlushSkipsObservers(t *testing.T) {
	s, _ := newTestScheduler()
	called := false
	s.OnFlush(func(FlushStats) { called = true })
	s.Flush()
	if called {
		t.Error("observer called for empty flush")
	}
}
