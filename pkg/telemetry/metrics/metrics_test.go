package metrics

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/harbor/pkg/handling"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRegistry() *Registry {
	return New("test", WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

type queueGauge struct{ depth float64 }

func (q *queueGauge) Name() string   { return "queue.depth" }
func (q *queueGauge) Value() float64 { return q.depth }

func TestNew_DefaultNamespace(t *testing.T) {
	if got := New("").Namespace(); got != DefaultNamespace {
		t.Errorf("Namespace() = %q, want %q", got, DefaultNamespace)
	}
}

func TestRegisterGauge_OverwritesByName(t *testing.T) {
	reg := newTestRegistry()

	reg.RegisterGaugeFunc("queue.depth", func() float64 { return 1 })
	reg.RegisterGauge(&queueGauge{depth: 7})
	reg.RegisterGaugeFunc("pool.size", func() float64 { return 3 })
	reg.RegisterGauge(nil)

	names := reg.GaugeNames()
	if len(names) != 2 || names[0] != "pool.size" || names[1] != "queue.depth" {
		t.Fatalf("GaugeNames() = %v", names)
	}

	snap := reg.Snapshot()
	if len(snap.Gauges) != 2 {
		t.Fatalf("expected 2 gauges, got %d", len(snap.Gauges))
	}
	if snap.Gauges[1].Value != 7 {
		t.Errorf("queue.depth = %v, want 7 from the replacement gauge", snap.Gauges[1].Value)
	}

	reg.UnregisterGauge("pool.size")
	if len(reg.GaugeNames()) != 1 {
		t.Errorf("expected 1 gauge after unregister")
	}
}

func TestObserve(t *testing.T) {
	reg := newTestRegistry()

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "gauge", value: &queueGauge{depth: 2}, want: true},
		{name: "function gauge", value: NewGauge("x", func() float64 { return 1 }), want: true},
		{name: "plain value", value: "not a gauge", want: false},
		{name: "nil", value: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.Observe(tt.value); got != tt.want {
				t.Errorf("Observe() = %v, want %v", got, tt.want)
			}
		})
	}

	if len(reg.GaugeNames()) != 2 {
		t.Errorf("expected 2 observed gauges, got %v", reg.GaugeNames())
	}
}

func TestGaugeCollector(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterGauge(&queueGauge{depth: 5})
	reg.RegisterGaugeFunc("broken", func() float64 { panic("boom") })

	expected := `
# HELP test_gauge_value Current value of a registered gauge
# TYPE test_gauge_value gauge
test_gauge_value{gauge="queue.depth"} 5
`
	if err := testutil.GatherAndCompare(reg.Prometheus(), strings.NewReader(expected), "test_gauge_value"); err != nil {
		t.Error(err)
	}

	snap := reg.Snapshot()
	if len(snap.Gauges) != 1 || snap.Gauges[0].Name != "queue.depth" {
		t.Errorf("expected panicking gauge to be skipped, got %+v", snap.Gauges)
	}
}

func TestTimed(t *testing.T) {
	reg := newTestRegistry()
	failure := errors.New("failed")

	const n = 5
	for i := 0; i < n; i++ {
		var err error
		if i == 0 {
			err = failure
		}
		got := reg.Timed("op", func() error { return err })
		if !errors.Is(got, err) {
			t.Fatalf("Timed() error = %v, want %v", got, err)
		}
	}

	timer := reg.Timer("op")
	if timer.Count() != n {
		t.Errorf("Count() = %d, want %d", timer.Count(), n)
	}
	if timer.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", timer.Failures())
	}
	if timer.Total() < 0 {
		t.Errorf("Total() = %v, want non-negative", timer.Total())
	}

	if got := testutil.CollectAndCount(reg.durations, "test_timer_duration_seconds"); got != 2 {
		t.Errorf("expected success and failure series, got %d", got)
	}
}

func TestTimedValue(t *testing.T) {
	reg := newTestRegistry()

	v, err := TimedValue(reg, "lookup", func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Fatalf("TimedValue() = %d, %v", v, err)
	}

	_, err = TimedValue(reg, "lookup", func() (int, error) { return 0, errors.New("missing") })
	if err == nil {
		t.Fatal("expected error")
	}

	stats := reg.Timer("lookup").Stats()
	if stats.Count != 2 || stats.Failures != 1 {
		t.Errorf("stats = %+v, want count 2 failures 1", stats)
	}
}

func TestTimed_Panic(t *testing.T) {
	reg := newTestRegistry()

	mustPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected the panic to propagate", name)
			}
		}()
		fn()
	}

	mustPanic("Timed", func() {
		_ = reg.Timed("op", func() error { panic("boom") })
	})
	mustPanic("TimedValue", func() {
		_, _ = TimedValue(reg, "value", func() (int, error) { panic("boom") })
	})

	for _, name := range []string{"op", "value"} {
		stats := reg.Timer(name).Stats()
		if stats.Count != 1 || stats.Failures != 1 {
			t.Errorf("%s: count=%d failures=%d, want 1/1", name, stats.Count, stats.Failures)
		}
	}
}

func TestTimed_Recursive(t *testing.T) {
	reg := newTestRegistry()

	var fib func(n int) (int, error)
	fib = func(n int) (int, error) {
		return TimedValue(reg, "fib", func() (int, error) {
			if n < 2 {
				return n, nil
			}
			a, _ := fib(n - 1)
			b, _ := fib(n - 2)
			return a + b, nil
		})
	}

	v, err := fib(10)
	if err != nil || v != 55 {
		t.Fatalf("fib(10) = %d, %v", v, err)
	}

	// fib(10) makes 177 calls, each nesting its own sample.
	if got := reg.Timer("fib").Count(); got != 177 {
		t.Errorf("Count() = %d, want 177", got)
	}
}

func TestTimer_Concurrent(t *testing.T) {
	reg := newTestRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = reg.Timed("shared", func() error { return nil })
			}
		}()
	}
	wg.Wait()

	if got := reg.Timer("shared").Count(); got != 1000 {
		t.Errorf("Count() = %d, want 1000", got)
	}
}

func TestSample_StopOnce(t *testing.T) {
	timer := newTestRegistry().Timer("once")

	sample := timer.Time()
	time.Sleep(time.Millisecond)
	first := sample.Stop(nil)
	sample.Stop(errors.New("ignored"))

	if first <= 0 {
		t.Errorf("elapsed = %v, want positive", first)
	}
	stats := timer.Stats()
	if stats.Count != 1 || stats.Failures != 0 {
		t.Errorf("stats = %+v, want a single success", stats)
	}
	if stats.Max < first || stats.Mean != stats.Total {
		t.Errorf("stats = %+v, inconsistent with one sample of %v", stats, first)
	}
}

func TestSnapshot_SortedTimers(t *testing.T) {
	reg := newTestRegistry()
	reg.Timer("b")
	reg.Timer("a")
	reg.RegisterGaugeFunc("g", func() float64 { return 1 })

	snap := reg.Snapshot()
	if snap.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", snap.Len())
	}
	if snap.Timers[0].Name != "a" || snap.Timers[1].Name != "b" {
		t.Errorf("timers not sorted: %+v", snap.Timers)
	}
	if snap.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
}

func TestRegisterRuntimeMetrics(t *testing.T) {
	reg := newTestRegistry()

	if err := reg.RegisterRuntimeMetrics(); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterRuntimeMetrics(); err != nil {
		t.Fatalf("second registration: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, mf := range families {
		if mf.GetName() == "go_goroutines" {
			found = true
		}
	}
	if !found {
		t.Error("expected go_goroutines after registering runtime metrics")
	}
}

func TestHandler(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterGaugeFunc("answer", func() float64 { return 42 })
	_ = reg.Timed("op", func() error { return nil })

	w := httptest.NewRecorder()
	reg.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`test_gauge_value{gauge="answer"} 42`,
		`test_timer_duration_seconds_count{outcome="success",timer="op"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRequestTiming(t *testing.T) {
	reg := newTestRegistry()
	decorator := reg.RequestTiming(2)

	app := handling.HandlerFunc(func(c *handling.Context) error {
		switch c.Request().URL.Path {
		case "/fail":
			return errors.New("handler failed")
		case "/broken":
			return c.Text(http.StatusBadGateway, "bad gateway")
		}
		return c.Text(http.StatusOK, "ok")
	})
	chain, err := decorator(nil, app)
	if err != nil {
		t.Fatal(err)
	}

	serve := func(method, path string) {
		c := handling.NewContext(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
		_ = chain.Handle(c)
	}

	serve(http.MethodGet, "/ok")
	serve(http.MethodGet, "/ok")
	serve(http.MethodGet, "/fail")
	serve(http.MethodGet, "/broken")
	serve(http.MethodPost, "/ok")

	tests := []struct {
		timer    string
		count    int64
		failures int64
	}{
		{timer: "GET /ok", count: 2},
		{timer: "GET /fail", count: 1, failures: 1},
		{timer: "GET other", count: 1, failures: 1},
		{timer: "POST other", count: 1},
	}
	for _, tt := range tests {
		stats := reg.Timer(tt.timer).Stats()
		if stats.Count != tt.count || stats.Failures != tt.failures {
			t.Errorf("%s: count=%d failures=%d, want %d/%d",
				tt.timer, stats.Count, stats.Failures, tt.count, tt.failures)
		}
	}
}

func TestRequestTiming_Panic(t *testing.T) {
	reg := newTestRegistry()

	app := handling.HandlerFunc(func(c *handling.Context) error {
		panic("handler exploded")
	})
	chain, err := reg.RequestTiming(10)(nil, app)
	if err != nil {
		t.Fatal(err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the panic to propagate to outer decorators")
			}
		}()
		c := handling.NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		_ = chain.Handle(c)
	}()

	stats := reg.Timer("GET /x").Stats()
	if stats.Count != 1 || stats.Failures != 1 {
		t.Errorf("count=%d failures=%d, want 1/1", stats.Count, stats.Failures)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(2)

	if !limiter.Allow("a") || !limiter.Allow("b") {
		t.Fatal("expected first two label sets to be allowed")
	}
	if limiter.Allow("c") {
		t.Error("expected third label set to be rejected")
	}
	if !limiter.Allow("a") {
		t.Error("expected existing label set to stay allowed")
	}
	if limiter.Count() != 2 {
		t.Errorf("Count() = %d, want 2", limiter.Count())
	}
}
