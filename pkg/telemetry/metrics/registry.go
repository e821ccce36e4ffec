package metrics

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// DefaultNamespace prefixes every exported metric when none is configured.
const DefaultNamespace = "harbor"

// Registry holds the gauges and timers of one server instance and exports
// them through its own Prometheus registry. Nothing is registered globally,
// so several servers can live in one process.
type Registry struct {
	namespace string
	logger    *slog.Logger
	prom      *prometheus.Registry

	mu     sync.RWMutex
	gauges map[string]Gauge

	// Timers are looked up on every request, so reads must not lock.
	timers sync.Map // map[string]*Timer

	durations *prometheus.HistogramVec
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report misbehaving gauges.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBuckets overrides the timer histogram buckets, in seconds.
func WithBuckets(buckets []float64) Option {
	return func(r *Registry) {
		if len(buckets) > 0 {
			r.durations = newDurationHistogram(r.namespace, buckets)
		}
	}
}

// New creates a registry exporting metrics under namespace.
// An empty namespace falls back to DefaultNamespace.
func New(namespace string, opts ...Option) *Registry {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	r := &Registry{
		namespace: namespace,
		logger:    slog.Default(),
		prom:      prometheus.NewRegistry(),
		gauges:    make(map[string]Gauge),
		durations: newDurationHistogram(namespace, prometheus.DefBuckets),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.prom.MustRegister(r.durations, newGaugeCollector(r))
	return r
}

func newDurationHistogram(namespace string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "timer_duration_seconds",
			Help:      "Duration of timed operations in seconds",
			Buckets:   buckets,
		},
		[]string{"timer", "outcome"},
	)
}

// Namespace returns the metric name prefix.
func (r *Registry) Namespace() string { return r.namespace }

// Prometheus returns the underlying Prometheus registry so callers can
// register additional collectors.
func (r *Registry) Prometheus() *prometheus.Registry { return r.prom }

// RegisterGauge registers g under its name. A gauge registered under a name
// that already exists replaces the earlier one.
func (r *Registry) RegisterGauge(g Gauge) {
	if g == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.gauges[g.Name()] = g
}

// RegisterGaugeFunc registers a gauge backed by sample.
func (r *Registry) RegisterGaugeFunc(name string, sample func() float64) {
	r.RegisterGauge(NewGauge(name, sample))
}

// UnregisterGauge removes the gauge with the given name.
func (r *Registry) UnregisterGauge(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.gauges, name)
}

// Observe registers v as a gauge when it implements Gauge and reports
// whether it did. It is the hook fired as components become available.
func (r *Registry) Observe(v any) bool {
	g, ok := v.(Gauge)
	if !ok || g == nil {
		return false
	}
	r.RegisterGauge(g)
	return true
}

// GaugeNames returns the registered gauge names in sorted order.
func (r *Registry) GaugeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.gauges))
	for name := range r.gauges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Timer returns the timer registered under name, creating it on first use.
func (r *Registry) Timer(name string) *Timer {
	if t, ok := r.timers.Load(name); ok {
		return t.(*Timer)
	}
	t, _ := r.timers.LoadOrStore(name, newTimer(name, r.durations))
	return t.(*Timer)
}

// Timed runs fn and records one sample into the named timer. A failing or
// panicking fn still records its duration, counted as a failure. The panic
// is propagated.
func (r *Registry) Timed(name string, fn func() error) error {
	sample := r.Timer(name).Time()
	defer sample.stopOnPanic()
	err := fn()
	sample.Stop(err)
	return err
}

// TimedValue is Timed for operations that return a value.
func TimedValue[T any](r *Registry, name string, fn func() (T, error)) (T, error) {
	sample := r.Timer(name).Time()
	defer sample.stopOnPanic()
	v, err := fn()
	sample.Stop(err)
	return v, err
}

// RegisterRuntimeMetrics exports Go runtime and process statistics.
func (r *Registry) RegisterRuntimeMetrics() error {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: r.namespace}),
	} {
		if err := r.prom.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Gather collects every metric family from the underlying registry.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.prom.Gather()
}

// Snapshot captures the current value of every gauge and timer, sorted by
// name. Gauges whose sampler panics are left out.
func (r *Registry) Snapshot() Snapshot {
	snap := Snapshot{Timestamp: time.Now()}

	for _, g := range r.gaugeList() {
		value, ok := r.sample(g)
		if !ok {
			continue
		}
		snap.Gauges = append(snap.Gauges, GaugeSample{Name: g.Name(), Value: value})
	}

	r.timers.Range(func(_, v any) bool {
		snap.Timers = append(snap.Timers, v.(*Timer).Stats())
		return true
	})
	sort.Slice(snap.Timers, func(i, j int) bool {
		return snap.Timers[i].Name < snap.Timers[j].Name
	})

	return snap
}

// gaugeList returns the registered gauges sorted by name.
func (r *Registry) gaugeList() []Gauge {
	r.mu.RLock()
	list := make([]Gauge, 0, len(r.gauges))
	for _, g := range r.gauges {
		list = append(list, g)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// sample reads a gauge, reporting false if its sampler panicked.
func (r *Registry) sample(g Gauge) (value float64, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("gauge sampler panicked",
				"gauge", g.Name(),
				"panic", p,
			)
			ok = false
		}
	}()
	return g.Value(), true
}

// Snapshot is a point-in-time view of a registry.
type Snapshot struct {
	Timestamp time.Time
	Gauges    []GaugeSample
	Timers    []TimerStats
}

// GaugeSample is the value of one gauge at snapshot time.
type GaugeSample struct {
	Name  string
	Value float64
}

// Len returns the number of metrics in the snapshot.
func (s Snapshot) Len() int { return len(s.Gauges) + len(s.Timers) }
