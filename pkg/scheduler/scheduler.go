package scheduler

import (
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/metrics"
)

// Job is a unit of work queued with the scheduler.
type Job interface {
	Run() error
}

// JobFunc adapts a function to Job. JobFunc values are not comparable, so
// scheduling the same JobFunc twice queues it twice; use NewJob for a job
// with stable identity.
type JobFunc func() error

// Run implements Job.
func (f JobFunc) Run() error { return f() }

type funcJob struct {
	fn func() error
}

func (j *funcJob) Run() error { return j.fn() }

// NewJob wraps fn in a job with pointer identity. Scheduling the returned
// job repeatedly before a flush queues it once.
func NewJob(fn func() error) Job {
	return &funcJob{fn: fn}
}

// FlushStats describes one completed flush.
type FlushStats struct {
	Jobs     int
	Failures int
	Duration time.Duration
}

// Scheduler coalesces jobs scheduled within one task into a single flush at
// the next frame boundary.
//
// A Scheduler belongs to the goroutine driving its loop; it holds no locks.
type Scheduler struct {
	loop   *loop.Loop
	logger *slog.Logger

	queue []Job
	index map[Job]struct{}

	flushScheduled bool
	flushing       bool

	observers []func(FlushStats)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used to report failing jobs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scheduler driven by l.
func New(l *loop.Loop, opts ...Option) *Scheduler {
	s := &Scheduler{
		loop:   l,
		logger: slog.Default(),
		index:  make(map[Job]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	defaultScheduler     *Scheduler
	defaultSchedulerOnce sync.Once
)

// Default returns the process-wide scheduler, bound to loop.Default().
func Default() *Scheduler {
	defaultSchedulerOnce.Do(func() {
		defaultScheduler = New(loop.Default())
	})
	return defaultScheduler
}

// Loop returns the loop the scheduler defers onto.
func (s *Scheduler) Loop() *loop.Loop {
	return s.loop
}

// Schedule queues job for the next flush. Jobs with the same identity
// collapse into one entry. A job scheduled while a flush is running is
// deferred to the following frame.
func (s *Scheduler) Schedule(job Job) {
	if job == nil {
		return
	}
	if s.flushing {
		s.loop.RequestFrame(func() { s.Schedule(job) })
		return
	}
	s.enqueue(job)
	if !s.flushScheduled {
		s.flushScheduled = true
		s.loop.QueueMicrotask(func() {
			s.loop.RequestFrame(s.Flush)
		})
	}
}

func (s *Scheduler) enqueue(job Job) {
	if !reflect.TypeOf(job).Comparable() {
		s.queue = append(s.queue, job)
		return
	}
	if _, ok := s.index[job]; ok {
		return
	}
	s.index[job] = struct{}{}
	s.queue = append(s.queue, job)
}

// Flush runs every queued job in enqueue order. Each job runs in its own
// failure boundary: an error or panic is logged and the flush continues.
func (s *Scheduler) Flush() {
	if len(s.queue) == 0 {
		s.flushScheduled = false
		s.flushing = false
		return
	}

	s.flushing = true
	s.flushScheduled = false
	jobs := s.queue
	s.queue = nil
	s.index = make(map[Job]struct{})

	start := time.Now()
	failures := 0
	for _, job := range jobs {
		if err := s.runJob(job); err != nil {
			failures++
			s.logger.Error("scheduler: job failed", "error", err)
		}
	}
	s.flushing = false

	stats := FlushStats{Jobs: len(jobs), Failures: failures, Duration: time.Since(start)}
	metrics.RecordFlush(stats.Jobs, stats.Failures, stats.Duration)
	for _, fn := range s.observers {
		s.notify(fn, stats)
	}
}

func (s *Scheduler) runJob(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Recovered("scheduler.Flush", r)
		}
	}()
	if err := job.Run(); err != nil {
		return errors.FromError(err, errors.CodeJobFailed)
	}
	return nil
}

func (s *Scheduler) notify(fn func(FlushStats), stats FlushStats) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler: flush observer panicked", "panic", r)
		}
	}()
	fn(stats)
}

// FlushSync runs fn immediately, bypassing the queue. Pending jobs are not
// drained.
func (s *Scheduler) FlushSync(fn func()) {
	if fn != nil {
		fn()
	}
}

// Clear drops every pending job and resets the flush flags. A flush already
// armed on the loop will find the queue empty.
func (s *Scheduler) Clear() {
	s.queue = nil
	s.index = make(map[Job]struct{})
	s.flushScheduled = false
	s.flushing = false
}

// Pending returns the number of queued jobs.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Flushing reports whether a flush is executing.
func (s *Scheduler) Flushing() bool {
	return s.flushing
}

// FlushScheduled reports whether a flush is armed.
func (s *Scheduler) FlushScheduled() bool {
	return s.flushScheduled
}

// OnFlush registers fn to be called after every non-empty flush.
func (s *Scheduler) OnFlush(fn func(FlushStats)) {
	if fn != nil {
		s.observers = append(s.observers, fn)
	}
}
