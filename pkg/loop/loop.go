package loop

import (
	"container/heap"
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrAlreadyRunning is returned when Run is called on a loop that is already running.
	ErrAlreadyRunning = errors.New("loop: already running")
)

const (
	// DefaultFrameInterval approximates a 60Hz display refresh.
	DefaultFrameInterval = 16 * time.Millisecond

	// DefaultMaxFrames bounds a single Drain call.
	DefaultMaxFrames = 1000

	// microtaskWarnThreshold is the queue depth at which a runaway
	// microtask chain is reported.
	microtaskWarnThreshold = 10000
)

// TimerID identifies a timer created by SetTimeout.
type TimerID uint64

type timer struct {
	id   TimerID
	when time.Time
	seq  uint64
	fn   func()
}

// timerHeap is a min-heap of timers ordered by deadline, then creation order.
type timerHeap []timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(timer)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = timer{}
	*h = old[:n-1]
	return x
}

// Loop is a cooperative single-goroutine event loop.
//
// Work is organised in three tiers that mirror a browser host:
//   - tasks, enqueued with Submit, run one at a time;
//   - microtasks, enqueued with QueueMicrotask, drain completely after every
//     task, timer, and frame callback;
//   - frame callbacks, enqueued with RequestFrame, run together at the next
//     display-sync boundary.
//
// # Thread Safety
//
// Submit is safe to call from any goroutine. Every other method is meant to
// be called from the goroutine that drives the loop (the one inside Run, or
// the caller of Drain/Frame/Advance in manual mode). The queues are guarded
// by a mutex so misuse degrades to reordering rather than memory corruption.
type Loop struct {
	mu         sync.Mutex
	tasks      []func()
	microtasks []func()
	frames     []func()
	timers     timerHeap
	active     map[TimerID]struct{}
	nextTimer  TimerID
	timerSeq   uint64

	frameInterval time.Duration
	maxFrames     int
	clock         Clock
	logger        *slog.Logger

	wake       chan struct{}
	running    atomic.Bool
	frameCount atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithFrameInterval sets the display-sync interval used by Run.
func WithFrameInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.frameInterval = d
		}
	}
}

// WithMaxFrames bounds the number of frames a single Drain call runs.
func WithMaxFrames(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxFrames = n
		}
	}
}

// WithClock sets the clock used for timers. Use a *ManualClock together with
// Advance for deterministic tests.
func WithClock(c Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger sets the logger used to report panicking callbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Loop. The loop does nothing until Run is called or it is
// driven manually with Drain, Frame, and Advance.
func New(opts ...Option) *Loop {
	l := &Loop{
		active:        make(map[TimerID]struct{}),
		frameInterval: DefaultFrameInterval,
		maxFrames:     DefaultMaxFrames,
		clock:         realClock{},
		logger:        slog.Default(),
		wake:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewManual creates a Loop backed by a ManualClock, for tests and headless
// tools that drive the loop explicitly.
func NewManual(opts ...Option) (*Loop, *ManualClock) {
	clock := NewManualClock(time.Unix(0, 0))
	opts = append([]Option{WithClock(clock)}, opts...)
	return New(opts...), clock
}

var (
	defaultLoop     *Loop
	defaultLoopOnce sync.Once
)

// Default returns the process-wide loop. It is created on first use and is
// not running until someone calls Run on it.
func Default() *Loop {
	defaultLoopOnce.Do(func() {
		defaultLoop = New()
	})
	return defaultLoop
}

// Submit enqueues a task. Safe for concurrent use.
func (l *Loop) Submit(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// QueueMicrotask enqueues fn to run once the current task, timer, or frame
// callback returns, before any further task or frame.
func (l *Loop) QueueMicrotask(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.microtasks = append(l.microtasks, fn)
	n := len(l.microtasks)
	l.mu.Unlock()
	if n == microtaskWarnThreshold {
		l.logger.Warn("loop: microtask queue is very deep, possible runaway chain", "depth", n)
	}
	l.signal()
}

// RequestFrame enqueues fn for the next display-sync boundary. Callbacks
// requested while a frame is running land in the following frame.
func (l *Loop) RequestFrame(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.frames = append(l.frames, fn)
	l.mu.Unlock()
	l.signal()
}

// SetTimeout runs fn once after d has elapsed on the loop clock.
func (l *Loop) SetTimeout(d time.Duration, fn func()) TimerID {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	l.nextTimer++
	l.timerSeq++
	id := l.nextTimer
	heap.Push(&l.timers, timer{id: id, when: l.clock.Now().Add(d), seq: l.timerSeq, fn: fn})
	l.active[id] = struct{}{}
	l.mu.Unlock()
	l.signal()
	return id
}

// ClearTimeout cancels a pending timer. Clearing a fired or unknown timer is
// a no-op.
func (l *Loop) ClearTimeout(id TimerID) {
	l.mu.Lock()
	delete(l.active, id)
	l.mu.Unlock()
}

// Now returns the loop clock's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// FrameCount returns the number of frames executed so far.
func (l *Loop) FrameCount() uint64 {
	return l.frameCount.Load()
}

// Idle reports whether no task, microtask, or frame callback is queued.
// Pending timers do not count.
func (l *Loop) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) == 0 && len(l.microtasks) == 0 && len(l.frames) == 0
}

// PendingTimers returns the number of timers that have not fired or been
// cleared.
func (l *Loop) PendingTimers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}

// Run drives the loop on the calling goroutine until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.frameInterval)
	defer ticker.Stop()

	for {
		l.runTasks()
		l.runTimers()

		var (
			wait   *time.Timer
			timerC <-chan time.Time
		)
		if d, ok := l.nextDeadline(); ok {
			wait = time.NewTimer(d)
			timerC = wait.C
		}

		select {
		case <-ctx.Done():
			if wait != nil {
				wait.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-timerC:
		case <-ticker.C:
			l.Frame()
		}
		if wait != nil {
			wait.Stop()
		}
	}
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Frame runs exactly one display-sync boundary: every frame callback queued
// before the call, each followed by a microtask drain.
func (l *Loop) Frame() {
	l.mu.Lock()
	frames := l.frames
	l.frames = nil
	l.mu.Unlock()

	for _, fn := range frames {
		l.safeExecute(fn)
		l.drainMicrotasks()
	}
	l.frameCount.Add(1)
}

// Drain runs tasks, due timers, microtasks, and frames until the loop is
// quiescent, and returns the number of frames executed. It stops after the
// configured frame budget so a component that re-requests frames forever
// cannot hang a test.
func (l *Loop) Drain() int {
	frames := 0
	for {
		l.runTasks()
		l.runTimers()
		l.drainMicrotasks()

		l.mu.Lock()
		pendingFrames := len(l.frames) > 0
		pendingTasks := len(l.tasks) > 0 || len(l.microtasks) > 0
		l.mu.Unlock()

		if !pendingFrames {
			if pendingTasks {
				continue
			}
			return frames
		}
		if frames >= l.maxFrames {
			l.logger.Warn("loop: drain frame budget exhausted", "frames", frames)
			return frames
		}
		l.Frame()
		frames++
	}
}

// Advance moves a manual clock forward by d, firing every timer that comes
// due in deadline order, then drains. It returns the frames executed while
// draining. With a real clock Advance only drains.
func (l *Loop) Advance(d time.Duration) int {
	if mc, ok := l.clock.(*ManualClock); ok {
		target := mc.Now().Add(d)
		for {
			when, ok := l.peekDeadline()
			if !ok || when.After(target) {
				break
			}
			mc.Set(when)
			l.runTimers()
			l.drainMicrotasks()
		}
		mc.Set(target)
	}
	return l.Drain()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) runTasks() {
	for {
		l.mu.Lock()
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		l.safeExecute(fn)
		l.drainMicrotasks()
	}
}

func (l *Loop) drainMicrotasks() {
	for {
		l.mu.Lock()
		if len(l.microtasks) == 0 {
			l.microtasks = nil
			l.mu.Unlock()
			return
		}
		fn := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		l.mu.Unlock()

		l.safeExecute(fn)
	}
}

func (l *Loop) runTimers() {
	for {
		now := l.clock.Now()
		l.mu.Lock()
		if len(l.timers) == 0 || l.timers[0].when.After(now) {
			l.mu.Unlock()
			return
		}
		t := heap.Pop(&l.timers).(timer)
		_, live := l.active[t.id]
		delete(l.active, t.id)
		l.mu.Unlock()

		if !live {
			continue
		}
		l.safeExecute(t.fn)
		l.drainMicrotasks()
	}
}

func (l *Loop) peekDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.timers) > 0 {
		if _, live := l.active[l.timers[0].id]; live {
			return l.timers[0].when, true
		}
		heap.Pop(&l.timers)
	}
	return time.Time{}, false
}

func (l *Loop) nextDeadline() (time.Duration, bool) {
	when, ok := l.peekDeadline()
	if !ok {
		return 0, false
	}
	d := when.Sub(l.clock.Now())
	if d < 0 {
		d = 0
	}
	return d, true
}

// safeExecute runs fn and contains any panic it raises.
func (l *Loop) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop: callback panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
