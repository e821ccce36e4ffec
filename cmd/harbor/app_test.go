package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/server"
	"mercator-hq/harbor/pkg/telemetry"
)

func startDemo(t *testing.T) (*server.Server, *telemetry.Module) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var tcfg config.TelemetryConfig
	tcfg.Metrics.Enabled = true
	tcfg.Health.Enabled = true
	tcfg.Health.RateLimit = 1000
	tel, err := telemetry.New(context.Background(), tcfg, telemetry.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}

	launch, err := config.NewLaunchConfigBuilder().
		Address("127.0.0.1").
		Port(0).
		WorkerThreads(2).
		BackgroundThreads(2).
		ShutdownTimeout(5 * time.Second).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	work := newWorkload(tel.Metrics(), launch.BackgroundThreads())
	tel.Add(work)

	srv := server.New(launch, newApplication(work),
		server.WithLogger(logger),
		server.WithDecorators(tel.Decorator()),
	)
	if _, err := srv.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	return srv, tel
}

func TestApplication(t *testing.T) {
	srv, tel := startDemo(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "greeting", path: "/", wantStatus: http.StatusOK},
		{name: "work", path: "/work?ms=5", wantStatus: http.StatusOK},
		{name: "default work", path: "/work", wantStatus: http.StatusOK},
		{name: "invalid work", path: "/work?ms=abc", wantStatus: http.StatusBadRequest},
		{name: "too much work", path: "/work?ms=60000", wantStatus: http.StatusBadRequest},
		{name: "unknown", path: "/missing", wantStatus: http.StatusNotFound},
		{name: "health", path: "/health", wantStatus: http.StatusOK},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL() + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}

	if got := tel.Metrics().Timer("work.run").Count(); got != 2 {
		t.Errorf("work.run count = %d, want 2", got)
	}
	if got := tel.Metrics().Timer("GET /work").Count(); got != 4 {
		t.Errorf("GET /work count = %d, want 4", got)
	}
}

func TestApplication_WorkResponse(t *testing.T) {
	srv, _ := startDemo(t)

	resp, err := http.Get(srv.URL() + "/work?ms=20")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body workResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.RequestedMS != 20 || body.ElapsedMS < 20 {
		t.Errorf("response = %+v, want 20ms of work", body)
	}
}

func TestWorkload_Check(t *testing.T) {
	work := newWorkload(nil, 1)

	if err := work.Check(context.Background()); err != nil {
		t.Errorf("idle workload unhealthy: %v", err)
	}

	work.inflight.Add(1)
	if err := work.Check(context.Background()); err == nil {
		t.Error("expected saturated workload to be unhealthy")
	}
	if work.Value() != 1 {
		t.Errorf("Value() = %v, want 1", work.Value())
	}
}

func TestParseWork(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 10 * time.Millisecond},
		{in: "0", want: 0},
		{in: "250", want: 250 * time.Millisecond},
		{in: "-1", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "5001", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseWork(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseWork(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseWork(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
