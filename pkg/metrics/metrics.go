// Package metrics exposes Prometheus collectors for the runtime.
//
// Collectors are created by Init. Until then every Record function is a
// no-op, so libraries can record unconditionally and applications opt in:
//
//	metrics.Init(metrics.WithNamespace("myapp"))
//	http.Handle("/metrics", promhttp.Handler())
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the runtime collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "kinetic").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush and update durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "kinetic",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

type collectors struct {
	flushesTotal     prometheus.Counter
	jobsTotal        prometheus.Counter
	jobFailures      prometheus.Counter
	flushDuration    prometheus.Histogram
	mountsTotal      *prometheus.CounterVec
	unmountsTotal    *prometheus.CounterVec
	updatesTotal     *prometheus.CounterVec
	updateDuration   *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
	mounted          prometheus.Gauge
	recomputesTotal  prometheus.Counter
	watcherFailures  prometheus.Counter
	preservedRestore *prometheus.CounterVec
}

var (
	global   *collectors
	globalMu sync.Mutex
)

// Init creates and registers the collectors. Later calls are no-ops.
func Init(opts ...Option) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = newCollectors(cfg)
	}
}

// Enabled reports whether Init has been called.
func Enabled() bool {
	return current() != nil
}

func current() *collectors {
	globalMu.Lock()
	defer globalMu.Unlock()
	return global
}

func newCollectors(cfg Config) *collectors {
	factory := promauto.With(cfg.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		}, labels)
	}

	return &collectors{
		flushesTotal: counter("scheduler_flushes_total", "Total number of scheduler flushes that ran at least one job"),
		jobsTotal:    counter("scheduler_jobs_total", "Total number of scheduled jobs executed"),
		jobFailures:  counter("scheduler_job_failures_total", "Total number of scheduled jobs that failed or panicked"),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "scheduler_flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}),
		mountsTotal:   counterVec("component_mounts_total", "Total number of component mounts", "component", "status"),
		unmountsTotal: counterVec("component_unmounts_total", "Total number of component unmounts", "component"),
		updatesTotal:  counterVec("component_updates_total", "Total number of component update routines by outcome", "component", "outcome"),
		updateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "component_update_duration_seconds",
			Help:        "Component update routine duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"component"}),
		errorsTotal: counterVec("component_errors_total", "Total number of lifecycle errors by phase", "component", "phase"),
		mounted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "components_mounted",
			Help:        "Number of currently mounted components",
			ConstLabels: cfg.ConstLabels,
		}),
		recomputesTotal:  counter("computed_recomputes_total", "Total number of computed value recomputations"),
		watcherFailures:  counter("watcher_failures_total", "Total number of watchers that failed or panicked"),
		preservedRestore: counterVec("preserved_mounts_total", "Preserved subtree restorations by result", "result"),
	}
}

// =============================================================================
// Recording Functions
// =============================================================================

// RecordFlush records one scheduler flush.
func RecordFlush(jobs, failures int, d time.Duration) {
	if m := current(); m != nil {
		m.flushesTotal.Inc()
		m.jobsTotal.Add(float64(jobs))
		m.jobFailures.Add(float64(failures))
		m.flushDuration.Observe(d.Seconds())
	}
}

// RecordMount records a mount attempt. status is "ok" or "error".
func RecordMount(component, status string) {
	if m := current(); m != nil {
		m.mountsTotal.WithLabelValues(component, status).Inc()
		if status == "ok" {
			m.mounted.Inc()
		}
	}
}

// RecordUnmount records a completed unmount.
func RecordUnmount(component string) {
	if m := current(); m != nil {
		m.unmountsTotal.WithLabelValues(component).Inc()
		m.mounted.Dec()
	}
}

// RecordUpdate records an update routine outcome ("patched", "skipped",
// "error").
func RecordUpdate(component, outcome string, d time.Duration) {
	if m := current(); m != nil {
		m.updatesTotal.WithLabelValues(component, outcome).Inc()
		m.updateDuration.WithLabelValues(component).Observe(d.Seconds())
	}
}

// RecordError records a lifecycle error in the given phase.
func RecordError(component, phase string) {
	if m := current(); m != nil {
		m.errorsTotal.WithLabelValues(component, phase).Inc()
	}
}

// RecordRecompute records one computed value recomputation.
func RecordRecompute() {
	if m := current(); m != nil {
		m.recomputesTotal.Inc()
	}
}

// RecordWatcherFailure records a watcher that failed or panicked.
func RecordWatcherFailure() {
	if m := current(); m != nil {
		m.watcherFailures.Inc()
	}
}

// RecordPreserved records preserved-subtree restorations ("restored" or
// "dropped").
func RecordPreserved(result string, n int) {
	if n == 0 {
		return
	}
	if m := current(); m != nil {
		m.preservedRestore.WithLabelValues(result).Add(float64(n))
	}
}
