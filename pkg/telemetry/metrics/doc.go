// Package metrics provides the gauge and timer registry of a harbor server.
//
// # Overview
//
// A Registry is owned by one server instance. Components register named
// gauges, either directly or through the Observe hook, and operations record
// into named timers. Everything is exported through the registry's own
// Prometheus registry and can be read back as a Snapshot for periodic
// reporters.
//
// # Metrics
//
//   - <namespace>_gauge_value{gauge}: current value of each gauge
//   - <namespace>_timer_duration_seconds{timer,outcome}: timer samples
//   - Go runtime and process metrics, when RegisterRuntimeMetrics is called
//
// # Usage
//
//	reg := metrics.New("harbor")
//	reg.RegisterGaugeFunc("queue.depth", func() float64 {
//		return float64(queue.Len())
//	})
//
//	err := reg.Timed("db.query", func() error {
//		return db.Query(ctx)
//	})
//
//	rows, err := metrics.TimedValue(reg, "db.rows", func() (int, error) {
//		return db.Count(ctx)
//	})
//
// # Request timing
//
// RequestTiming returns a decorator recording one sample per request, named
// after the method and path. The number of distinct names is capped by a
// CardinalityLimiter; further routes are folded into "<METHOD> other".
//
// # Performance
//
// Timer lookups and updates never take a lock. Gauges are sampled only when
// metrics are scraped or a snapshot is taken.
package metrics
