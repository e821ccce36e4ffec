package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/handling"
	"mercator-hq/harbor/pkg/middleware"
	"mercator-hq/harbor/pkg/server"
	"mercator-hq/harbor/pkg/telemetry/health"
	"mercator-hq/harbor/pkg/telemetry/metrics"
	"mercator-hq/harbor/pkg/telemetry/report"
)

// Module bundles the metric and health registries of one server with the
// decorator that times requests and serves the health and metrics
// endpoints, and the scheduler driving the configured reporters.
type Module struct {
	cfg     config.TelemetryConfig
	logger  *slog.Logger
	console io.Writer

	metrics   *metrics.Registry
	health    *health.Registry
	scheduler *report.Scheduler

	mu        sync.Mutex
	pending   []health.Check
	assembled bool
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the module logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithConsoleWriter sets where the console reporter writes. Defaults to stdout.
func WithConsoleWriter(w io.Writer) Option {
	return func(m *Module) {
		if w != nil {
			m.console = w
		}
	}
}

// New creates a telemetry module. Zero-valued fields of cfg take their
// defaults; an invalid configuration fails with a config.ValidationError
// before anything is opened.
func New(ctx context.Context, cfg config.TelemetryConfig, opts ...Option) (*Module, error) {
	full := config.Config{Telemetry: cfg}
	config.ApplyDefaults(&full)
	cfg = full.Telemetry

	if err := config.ValidateTelemetry(&cfg); err != nil {
		return nil, err
	}

	m := &Module{
		cfg:     cfg,
		logger:  slog.Default(),
		console: os.Stdout,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "telemetry")

	m.metrics = metrics.New(cfg.Metrics.Namespace, metrics.WithLogger(m.logger))
	if cfg.Metrics.Enabled && cfg.Metrics.Runtime {
		if err := m.metrics.RegisterRuntimeMetrics(); err != nil {
			return nil, fmt.Errorf("failed to register runtime metrics: %w", err)
		}
	}

	m.health = health.New(cfg.Health.CheckTimeout)

	scheduler, err := m.newScheduler(ctx)
	if err != nil {
		return nil, err
	}
	m.scheduler = scheduler

	return m, nil
}

// newScheduler opens the enabled reporters. Reporters already opened are
// closed again when a later one fails.
func (m *Module) newScheduler(ctx context.Context) (*report.Scheduler, error) {
	s := report.NewScheduler(m.metrics, m.logger)
	rc := m.cfg.Reporters

	fail := func(err error) (*report.Scheduler, error) {
		_ = s.Stop(ctx)
		return nil, err
	}

	if rc.Console.Enabled {
		if err := s.Add(report.NewConsoleReporter(m.console), rc.Console.Schedule); err != nil {
			return fail(err)
		}
	}

	if rc.CSV.Enabled {
		r, err := report.NewCSVReporter(rc.CSV.Directory)
		if err != nil {
			return fail(err)
		}
		if err := s.Add(r, rc.CSV.Schedule); err != nil {
			return fail(err)
		}
	}

	if rc.SQLite.Enabled {
		r, err := report.NewSQLiteReporter(ctx, rc.SQLite.Path)
		if err != nil {
			return fail(err)
		}
		if err := s.Add(r, rc.SQLite.Schedule); err != nil {
			_ = r.Close()
			return fail(err)
		}
	}

	return s, nil
}

// Add makes components known to the module. Gauges are registered at once.
// Health checks are registered when the handler chain is assembled, or at
// once if it already has been. A component may be both.
func (m *Module) Add(components ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range components {
		m.metrics.Observe(c)

		if check, ok := c.(health.Check); ok && check != nil {
			if m.assembled {
				m.health.Register(check)
			} else {
				m.pending = append(m.pending, check)
			}
		}
	}
}

// assemble registers every queued health check.
func (m *Module) assemble() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.health.Register(m.pending...)
	m.pending = nil
	m.assembled = true
}

// Decorator returns the telemetry decorator. Register it before every other
// decorator so request timing covers the whole chain.
//
// It times every request when metrics are enabled and serves the health
// report at health.path and the Prometheus metrics at metrics.path. With
// both disabled the inner handler is returned unchanged.
func (m *Module) Decorator() handling.Decorator {
	return func(launch *config.LaunchConfig, next handling.Handler) (handling.Handler, error) {
		m.assemble()

		h := next
		var err error

		if m.cfg.Health.Enabled {
			endpoint := health.RateLimitedHandler(m.health.Handler(), m.cfg.Health.RateLimit)
			if h, err = middleware.Mount(m.cfg.Health.Path, handling.FromHTTP(endpoint))(launch, h); err != nil {
				return nil, err
			}
		}

		if m.cfg.Metrics.Enabled {
			if h, err = middleware.Mount(m.cfg.Metrics.Path, handling.FromHTTP(m.metrics.Handler()))(launch, h); err != nil {
				return nil, err
			}
			if h, err = m.metrics.RequestTiming(m.cfg.Metrics.MaxRoutes)(launch, h); err != nil {
				return nil, err
			}
		}

		m.logger.Debug("telemetry assembled",
			"health_checks", m.health.Names(),
			"gauges", m.metrics.GaugeNames(),
			"metrics_enabled", m.cfg.Metrics.Enabled,
			"health_enabled", m.cfg.Health.Enabled,
		)
		return h, nil
	}
}

// Services returns the services the server must run alongside the module.
func (m *Module) Services() []server.Service {
	if m.scheduler.Len() == 0 {
		return nil
	}
	return []server.Service{m.scheduler}
}

// Snapshot is a point-in-time view of both registries.
type Snapshot struct {
	Metrics metrics.Snapshot
	Health  health.Report
}

// Snapshot samples every gauge and timer and runs every health check.
func (m *Module) Snapshot(ctx context.Context) Snapshot {
	return Snapshot{
		Metrics: m.metrics.Snapshot(),
		Health:  m.health.RunAll(ctx),
	}
}

// ReportNow sends one snapshot to every configured reporter.
func (m *Module) ReportNow(ctx context.Context) error {
	return m.scheduler.ReportNow(ctx)
}

// Metrics returns the metric registry.
func (m *Module) Metrics() *metrics.Registry { return m.metrics }

// Health returns the health registry.
func (m *Module) Health() *health.Registry { return m.health }

// Config returns the effective configuration, defaults applied.
func (m *Module) Config() config.TelemetryConfig { return m.cfg }
