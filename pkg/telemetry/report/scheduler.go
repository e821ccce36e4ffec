package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/harbor/pkg/server"
)

var _ server.Service = (*Scheduler)(nil)

type job struct {
	reporter Reporter
	schedule string
}

// Scheduler runs reporters on cron schedules. It is a server.Service: the
// server starts it during assembly and stops it, closing every reporter,
// during shutdown.
//
// Schedules use standard cron syntax or descriptors:
//   - "@every 30s"   - Every 30 seconds
//   - "*/5 * * * *"  - Every 5 minutes
//   - "0 * * * *"    - Hourly
type Scheduler struct {
	source Source
	logger *slog.Logger

	mu      sync.Mutex
	jobs    []job
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// NewScheduler creates a scheduler reporting snapshots taken from source.
func NewScheduler(source Source, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source: source,
		logger: logger.With("component", "telemetry.report"),
	}
}

// Add schedules r. The schedule is validated immediately.
func (s *Scheduler) Add(r Reporter, schedule string) error {
	if r == nil {
		return errors.New("reporter is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q for %s reporter: %w", schedule, r.Name(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("cannot add %s reporter to a running scheduler", r.Name())
	}
	s.jobs = append(s.jobs, job{reporter: r, schedule: schedule})
	return nil
}

// Len returns the number of scheduled reporters.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Name implements server.Service.
func (s *Scheduler) Name() string { return "reporters" }

// Start implements server.Service. Reports keep running after ctx is done;
// only Stop ends them.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if len(s.jobs) == 0 {
		s.logger.Debug("no reporters configured, skipping scheduler")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := cron.New()
	for _, j := range s.jobs {
		j := j
		if _, err := c.AddFunc(j.schedule, func() {
			s.report(runCtx, j.reporter)
		}); err != nil {
			cancel()
			return fmt.Errorf("failed to schedule %s reporter: %w", j.reporter.Name(), err)
		}
	}

	c.Start()
	s.cron = c
	s.cancel = cancel
	s.running = true

	s.logger.Info("report scheduler started", "reporters", len(s.jobs))
	return nil
}

// Stop implements server.Service. It waits for running reports to finish,
// or for ctx to be done, then closes every reporter. Once the reporters are
// closed further calls do nothing.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running && len(s.jobs) == 0 {
		return nil
	}

	var errs []error
	if s.running {
		done := s.cron.Stop()
		select {
		case <-done.Done():
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("waiting for reports: %w", ctx.Err()))
		}
		s.cancel()
		s.running = false
	}

	for _, j := range s.jobs {
		if err := j.reporter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s reporter: %w", j.reporter.Name(), err))
		}
	}
	s.jobs = nil

	s.logger.Info("report scheduler stopped")
	return errors.Join(errs...)
}

// ReportNow sends one snapshot to every reporter immediately.
func (s *Scheduler) ReportNow(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]job(nil), s.jobs...)
	s.mu.Unlock()

	snap := s.source.Snapshot()

	var errs []error
	for _, j := range jobs {
		if err := j.reporter.Report(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("%s reporter: %w", j.reporter.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// NextRun returns the next scheduled report time, or the zero time when the
// scheduler is not running.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return time.Time{}
	}

	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

// report runs one scheduled report. Failures are logged and retried on the
// next tick.
func (s *Scheduler) report(ctx context.Context, r Reporter) {
	start := time.Now()
	if err := r.Report(ctx, s.source.Snapshot()); err != nil {
		s.logger.Error("scheduled report failed",
			"reporter", r.Name(),
			"error", err,
		)
		return
	}
	s.logger.Debug("scheduled report completed",
		"reporter", r.Name(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
