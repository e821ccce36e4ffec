package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"mercator-hq/harbor/pkg/handling"
	"mercator-hq/harbor/pkg/telemetry/metrics"
)

// maxWork caps the simulated work of a single /work request.
const maxWork = 5 * time.Second

// workload is the demo application's blocking work. It is registered with
// telemetry as both a gauge (requests in progress) and a health check.
type workload struct {
	metrics  *metrics.Registry
	inflight atomic.Int64
	limit    int64
}

func newWorkload(reg *metrics.Registry, limit int) *workload {
	return &workload{metrics: reg, limit: int64(limit)}
}

// Name implements metrics.Gauge and health.Check.
func (w *workload) Name() string { return "workload" }

// Value implements metrics.Gauge.
func (w *workload) Value() float64 { return float64(w.inflight.Load()) }

// Check implements health.Check. The workload is unhealthy when every
// background slot is busy.
func (w *workload) Check(context.Context) error {
	if n := w.inflight.Load(); w.limit > 0 && n >= w.limit {
		return fmt.Errorf("%d of %d background slots busy", n, w.limit)
	}
	return nil
}

// run sleeps for d, or until ctx is done, recording into the work timer.
func (w *workload) run(ctx context.Context, d time.Duration) (time.Duration, error) {
	w.inflight.Add(1)
	defer w.inflight.Add(-1)

	return metrics.TimedValue(w.metrics, "work.run", func() (time.Duration, error) {
		start := time.Now()
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
			return time.Since(start), nil
		case <-ctx.Done():
			return time.Since(start), ctx.Err()
		}
	})
}

type workResponse struct {
	RequestedMS int64 `json:"requested_ms"`
	ElapsedMS   int64 `json:"elapsed_ms"`
}

// newApplication returns the demo application handler:
//
//	GET /            greeting
//	GET /work?ms=N   N milliseconds of blocking work, offloaded to the
//	                 background pool
func newApplication(work *workload) handling.Handler {
	return handling.HandlerFunc(func(c *handling.Context) error {
		r := c.Request()

		switch r.URL.Path {
		case "/":
			return c.Text(http.StatusOK, "Hello from harbor\n")

		case "/work":
			d, err := parseWork(r.URL.Query().Get("ms"))
			if err != nil {
				return handling.NewHandlerError(http.StatusBadRequest, err)
			}

			elapsed, err := handling.Blocking(c, func(ctx context.Context) (time.Duration, error) {
				return work.run(ctx, d)
			})
			if err != nil {
				return err
			}

			return c.JSON(http.StatusOK, workResponse{
				RequestedMS: d.Milliseconds(),
				ElapsedMS:   elapsed.Milliseconds(),
			})

		default:
			return handling.NewHandlerError(http.StatusNotFound, errors.New("not found"))
		}
	})
}

func parseWork(s string) (time.Duration, error) {
	if s == "" {
		return 10 * time.Millisecond, nil
	}
	ms, err := strconv.Atoi(s)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("invalid ms %q: must be a non-negative integer", s)
	}
	d := time.Duration(ms) * time.Millisecond
	if d > maxWork {
		return 0, fmt.Errorf("ms must not exceed %d", maxWork.Milliseconds())
	}
	return d, nil
}
