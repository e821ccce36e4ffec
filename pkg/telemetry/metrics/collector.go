package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Gauge is a named numeric sampler exposing a current value.
type Gauge interface {
	Name() string
	Value() float64
}

type funcGauge struct {
	name   string
	sample func() float64
}

func (g funcGauge) Name() string   { return g.name }
func (g funcGauge) Value() float64 { return g.sample() }

// NewGauge creates a Gauge from a name and a sampling function.
func NewGauge(name string, sample func() float64) Gauge {
	return funcGauge{name: name, sample: sample}
}

// gaugeCollector exports every registered gauge as
// <namespace>_gauge_value{gauge="name"}, sampled at scrape time.
type gaugeCollector struct {
	registry *Registry
	desc     *prometheus.Desc
}

func newGaugeCollector(r *Registry) *gaugeCollector {
	return &gaugeCollector{
		registry: r,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(r.namespace, "", "gauge_value"),
			"Current value of a registered gauge",
			[]string{"gauge"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *gaugeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector. A gauge whose sampler panics is
// skipped so one broken component cannot fail the whole scrape.
func (c *gaugeCollector) Collect(ch chan<- prometheus.Metric) {
	for _, g := range c.registry.gaugeList() {
		value, ok := c.registry.sample(g)
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, value, g.Name())
	}
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values a metric may carry.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
