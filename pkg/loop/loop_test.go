package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestMicrotasksRunBeforeFrames(t *testing.T) {
	l, _ := NewManual()
	var order []string

	l.RequestFrame(func() { order = append(order, "frame") })
	l.Submit(func() {
		order = append(order, "task")
		l.QueueMicrotask(func() { order = append(order, "micro") })
	})

	frames := l.Drain()

	want := []string{"task", "micro", "frame"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
	if frames != 1 {
		t.Errorf("frames = %d, want 1", frames)
	}
}

func TestFrameRequestedDuringFrameRunsNextFrame(t *testing.T) {
	l, _ := NewManual()
	var seen []uint64

	l.RequestFrame(func() {
		seen = append(seen, l.FrameCount())
		l.RequestFrame(func() {
			seen = append(seen, l.FrameCount())
		})
	})

	if frames := l.Drain(); frames != 2 {
		t.Fatalf("frames = %d, want 2", frames)
	}
	if seen[0] == seen[1] {
		t.Errorf("nested frame ran in the same frame: %v", seen)
	}
}

func TestPanicIsContained(t *testing.T) {
	l, _ := NewManual()
	ran := false

	l.Submit(func() { panic("boom") })
	l.Submit(func() { ran = true })
	l.Drain()

	if !ran {
		t.Error("task after panicking task did not run")
	}
}

func TestTimersFireInDeadlineOrder(t *testing.T) {
	l, _ := NewManual()
	var order []int

	l.SetTimeout(30*time.Millisecond, func() { order = append(order, 3) })
	l.SetTimeout(10*time.Millisecond, func() { order = append(order, 1) })
	l.SetTimeout(20*time.Millisecond, func() { order = append(order, 2) })

	l.Advance(15 * time.Millisecond)
	if len(order) != 1 || order[0] != 1 {
		t.Fatalf("after 15ms order = %v, want [1]", order)
	}

	l.Advance(20 * time.Millisecond)
	if len(order) != 3 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
}

func TestClearTimeout(t *testing.T) {
	l, _ := NewManual()
	fired := false

	id := l.SetTimeout(time.Second, func() { fired = true })
	l.ClearTimeout(id)
	l.Advance(2 * time.Second)

	if fired {
		t.Error("cleared timer fired")
	}
	if n := l.PendingTimers(); n != 0 {
		t.Errorf("PendingTimers = %d, want 0", n)
	}
}

func TestDrainRespectsFrameBudget(t *testing.T) {
	l, _ := NewManual(WithMaxFrames(5))

	var again func()
	again = func() { l.RequestFrame(again) }
	l.RequestFrame(again)

	if frames := l.Drain(); frames != 5 {
		t.Errorf("frames = %d, want 5", frames)
	}
}

func TestRunProcessesSubmittedWork(t *testing.T) {
	l := New(WithFrameInterval(time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	var framed atomic.Bool

	go func() { _ = l.Run(ctx) }()

	l.Submit(func() {
		l.RequestFrame(func() {
			framed.Store(true)
			close(done)
		})
	})

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("frame callback never ran")
	}
	if !framed.Load() {
		t.Error("frame flag not set")
	}
}

func TestRunTwiceFails(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		l.Submit(func() { close(started) })
		_ = l.Run(ctx)
	}()
	<-started

	if err := l.Run(ctx); err != ErrAlreadyRunning {
		t.Errorf("second Run error = %v, want ErrAlreadyRunning", err)
	}
}
