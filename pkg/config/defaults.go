package config

import (
	"runtime"
	"time"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultPort              = 5050
	DefaultBackgroundThreads = 64
	DefaultBufferAllocator   = AllocatorPooled
	DefaultReadTimeout       = 30 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMaxHeaderBytes    = 1048576 // 1MB
	DefaultTLSMinVersion     = "1.3"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsNamespace   = "harbor"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsMaxRoutes   = 1000
	DefaultHealthPath         = "/health"
	DefaultHealthCheckTimeout = 5 * time.Second
	DefaultHealthRateLimit    = 10
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "harbor"
	DefaultReportSchedule     = "@every 1m"

	// Admin defaults
	DefaultStopPath = "/admin/stop"
)

// DefaultWorkerThreads returns the worker slot count used when none is configured.
func DefaultWorkerThreads() int {
	return runtime.NumCPU() * 2
}

// DefaultConfig returns a configuration with every default applied and the
// boolean toggles set to their documented defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = DefaultPort
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Health.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// Boolean toggles are left untouched because false is a meaningful value.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults. Port 0 is meaningful (ephemeral) so it is not defaulted here.
	if cfg.Server.WorkerThreads == 0 {
		cfg.Server.WorkerThreads = DefaultWorkerThreads()
	}
	if cfg.Server.BackgroundThreads == 0 {
		cfg.Server.BackgroundThreads = DefaultBackgroundThreads
	}
	if cfg.Server.BufferAllocator == "" {
		cfg.Server.BufferAllocator = DefaultBufferAllocator
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}

	// Logging defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}

	// Metrics defaults
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.MaxRoutes == 0 {
		cfg.Telemetry.Metrics.MaxRoutes = DefaultMetricsMaxRoutes
	}

	// Health defaults
	if cfg.Telemetry.Health.Path == "" {
		cfg.Telemetry.Health.Path = DefaultHealthPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	if cfg.Telemetry.Health.RateLimit == 0 {
		cfg.Telemetry.Health.RateLimit = DefaultHealthRateLimit
	}

	// Tracing defaults
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}

	// Reporter defaults
	if cfg.Telemetry.Reporters.Console.Schedule == "" {
		cfg.Telemetry.Reporters.Console.Schedule = DefaultReportSchedule
	}
	if cfg.Telemetry.Reporters.CSV.Schedule == "" {
		cfg.Telemetry.Reporters.CSV.Schedule = DefaultReportSchedule
	}
	if cfg.Telemetry.Reporters.SQLite.Schedule == "" {
		cfg.Telemetry.Reporters.SQLite.Schedule = DefaultReportSchedule
	}

	// Admin defaults
	if cfg.Admin.StopPath == "" {
		cfg.Admin.StopPath = DefaultStopPath
	}
}
