package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// TestNew tests the creation of a new health registry.
func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{
			name:            "default timeout",
			timeout:         0,
			expectedTimeout: DefaultCheckTimeout,
		},
		{
			name:            "custom timeout",
			timeout:         10 * time.Second,
			expectedTimeout: 10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := New(tt.timeout)

			if registry.checkTimeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, registry.checkTimeout)
			}
			if registry.Len() != 0 {
				t.Errorf("expected 0 checks, got %d", registry.Len())
			}
		})
	}
}

func TestRegister_OverwritesByName(t *testing.T) {
	registry := New(time.Second)

	registry.RegisterFunc("db", func(context.Context) error { return errors.New("first") })
	registry.Register(NewCheck("db", func(context.Context) error { return nil }))
	registry.RegisterFunc("cache", func(context.Context) error { return nil })
	registry.Register(nil)

	if registry.Len() != 2 {
		t.Fatalf("expected 2 checks, got %d", registry.Len())
	}
	names := registry.Names()
	if len(names) != 2 || names[0] != "cache" || names[1] != "db" {
		t.Errorf("Names() = %v, want [cache db]", names)
	}

	result, err := registry.Run(context.Background(), "db")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Healthy() {
		t.Errorf("expected replacement check to run, got %+v", result)
	}
}

func TestUnregister(t *testing.T) {
	registry := New(time.Second)
	registry.RegisterFunc("db", func(context.Context) error { return nil })
	registry.Unregister("db")
	registry.Unregister("missing")

	if registry.Len() != 0 {
		t.Errorf("expected 0 checks, got %d", registry.Len())
	}
	if _, err := registry.Run(context.Background(), "db"); !errors.Is(err, ErrUnknownCheck) {
		t.Errorf("Run() error = %v, want ErrUnknownCheck", err)
	}
}

func TestRunAll_NoChecks(t *testing.T) {
	report := New(time.Second).RunAll(context.Background())

	if !report.Healthy() {
		t.Errorf("expected healthy report, got %s", report.Status)
	}
	if report.Checks == nil || len(report.Checks) != 0 {
		t.Errorf("expected empty checks map, got %v", report.Checks)
	}
}

func TestRunAll_IsolatesFailures(t *testing.T) {
	registry := New(100 * time.Millisecond)
	registry.RegisterFunc("healthy", func(context.Context) error { return nil })
	registry.RegisterFunc("failing", func(context.Context) error { return errors.New("disk full") })
	registry.RegisterFunc("panicking", func(context.Context) error { panic("probe exploded") })
	registry.RegisterFunc("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	report := registry.RunAll(context.Background())

	if report.Status != StatusDegraded {
		t.Errorf("Status = %q, want degraded", report.Status)
	}
	if len(report.Checks) != 4 {
		t.Fatalf("expected 4 results, got %d", len(report.Checks))
	}

	tests := []struct {
		name    string
		healthy bool
		message string
	}{
		{"healthy", true, ""},
		{"failing", false, "disk full"},
		{"panicking", false, "health check panicked: probe exploded"},
		{"slow", false, ErrCheckTimeout.Error()},
	}
	for _, tt := range tests {
		got := report.Checks[tt.name]
		if got.Healthy() != tt.healthy {
			t.Errorf("%s: healthy = %v, want %v", tt.name, got.Healthy(), tt.healthy)
		}
		if got.Message != tt.message {
			t.Errorf("%s: message = %q, want %q", tt.name, got.Message, tt.message)
		}
	}
}

func TestRunAll_Concurrent(t *testing.T) {
	registry := New(time.Second)

	var running, peak atomic.Int32
	for _, name := range []string{"a", "b", "c", "d"} {
		registry.RegisterFunc(name, func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}

	report := registry.RunAll(context.Background())
	if !report.Healthy() {
		t.Errorf("expected healthy report")
	}
	if peak.Load() < 2 {
		t.Errorf("expected checks to run concurrently, peak = %d", peak.Load())
	}
}

func TestResult_Duration(t *testing.T) {
	registry := New(time.Second)
	registry.RegisterFunc("sleepy", func(context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	result, err := registry.Run(context.Background(), "sleepy")
	if err != nil {
		t.Fatal(err)
	}
	if result.Duration < 10*time.Millisecond {
		t.Errorf("Duration = %v, want >= 10ms", result.Duration)
	}
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		check      CheckFunc
		wantStatus int
		wantBody   bool
	}{
		{
			name:       "healthy",
			method:     http.MethodGet,
			check:      func(context.Context) error { return nil },
			wantStatus: http.StatusOK,
			wantBody:   true,
		},
		{
			name:       "unhealthy",
			method:     http.MethodGet,
			check:      func(context.Context) error { return errors.New("down") },
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   true,
		},
		{
			name:       "head",
			method:     http.MethodHead,
			check:      func(context.Context) error { return nil },
			wantStatus: http.StatusOK,
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			check:      func(context.Context) error { return nil },
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := New(time.Second)
			registry.RegisterFunc("component", tt.check)

			w := httptest.NewRecorder()
			registry.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !tt.wantBody {
				return
			}

			var report Report
			if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if _, ok := report.Checks["component"]; !ok {
				t.Errorf("expected component in report, got %v", report.Checks)
			}
		})
	}
}

func TestRateLimitedHandler(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitedHandler(inner, 2)

	var limited int
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	if limited == 0 {
		t.Error("expected some requests to be rate limited")
	}
}

func TestRateLimitedHandler_Disabled(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitedHandler(inner, 0)

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
}
