package metrics

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values of the timer histogram.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Timer accumulates durations of one named operation. All updates are
// atomic so concurrent and nested samples never contend on a lock.
type Timer struct {
	name string

	count    atomic.Int64
	failures atomic.Int64
	total    atomic.Int64 // nanoseconds
	max      atomic.Int64 // nanoseconds

	success prometheus.Observer
	failure prometheus.Observer
}

func newTimer(name string, durations *prometheus.HistogramVec) *Timer {
	return &Timer{
		name:    name,
		success: durations.WithLabelValues(name, OutcomeSuccess),
		failure: durations.WithLabelValues(name, OutcomeFailure),
	}
}

// Name returns the timer name.
func (t *Timer) Name() string { return t.name }

// Time starts a new sample. Each call returns an independent sample, so
// recursive operations nest their own measurements.
func (t *Timer) Time() *Sample {
	return &Sample{timer: t, start: time.Now()}
}

// Record adds one measurement. A non-nil err counts as a failure.
func (t *Timer) Record(d time.Duration, err error) {
	if d < 0 {
		d = 0
	}

	t.count.Add(1)
	t.total.Add(int64(d))
	for {
		cur := t.max.Load()
		if int64(d) <= cur || t.max.CompareAndSwap(cur, int64(d)) {
			break
		}
	}

	if err != nil {
		t.failures.Add(1)
		t.failure.Observe(d.Seconds())
		return
	}
	t.success.Observe(d.Seconds())
}

// Count returns the number of recorded samples, failures included.
func (t *Timer) Count() int64 { return t.count.Load() }

// Failures returns the number of samples recorded with an error.
func (t *Timer) Failures() int64 { return t.failures.Load() }

// Total returns the sum of all recorded durations.
func (t *Timer) Total() time.Duration { return time.Duration(t.total.Load()) }

// Stats returns the current accumulated values.
func (t *Timer) Stats() TimerStats {
	count := t.count.Load()
	total := time.Duration(t.total.Load())

	var mean time.Duration
	if count > 0 {
		mean = total / time.Duration(count)
	}

	return TimerStats{
		Name:     t.name,
		Count:    count,
		Failures: t.failures.Load(),
		Total:    total,
		Mean:     mean,
		Max:      time.Duration(t.max.Load()),
	}
}

// TimerStats is the accumulated state of a timer at snapshot time.
type TimerStats struct {
	Name     string
	Count    int64
	Failures int64
	Total    time.Duration
	Mean     time.Duration
	Max      time.Duration
}

// Sample is one in-flight measurement.
type Sample struct {
	timer   *Timer
	start   time.Time
	stopped atomic.Bool
}

// Stop records the elapsed time into the timer and returns it. Only the
// first call records; later calls return the elapsed time without recording.
func (s *Sample) Stop(err error) time.Duration {
	elapsed := time.Since(s.start)
	if s.stopped.CompareAndSwap(false, true) {
		s.timer.Record(elapsed, err)
	}
	return elapsed
}

// stopOnPanic is deferred by the timing combinators. When the timed
// operation panics it records a failed sample and panics again.
func (s *Sample) stopOnPanic() {
	if p := recover(); p != nil {
		s.Stop(fmt.Errorf("panic: %v", p))
		panic(p)
	}
}
