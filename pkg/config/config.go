package config

import "time"

// Config is the root configuration structure for a harbor server.
// It is the mutable, file-backed model; the server itself only ever reads
// the immutable LaunchConfig derived from it.
type Config struct {
	// Server contains listener, worker pool and TLS configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging, metrics, health, tracing and reporter settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Admin contains configuration for the built-in administrative endpoints.
	Admin AdminConfig `yaml:"admin"`
}

// ServerConfig contains configuration for the listening server.
type ServerConfig struct {
	// Address is the host or IP to bind. Empty binds all interfaces.
	// Default: ""
	Address string `yaml:"address"`

	// Port is the TCP port to bind. 0 requests an ephemeral port.
	// Default: 5050
	Port int `yaml:"port"`

	// WorkerThreads is the number of request worker slots.
	// Zero selects twice the number of CPUs; negative values are rejected.
	WorkerThreads int `yaml:"worker_threads"`

	// BackgroundThreads bounds the executor used for blocking work.
	// Default: 64
	BackgroundThreads int `yaml:"background_threads"`

	// BufferAllocator selects the response buffer strategy.
	// Options: "pooled", "unpooled"
	// Default: "pooled"
	BufferAllocator string `yaml:"buffer_allocator"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds the graceful drain. Zero waits indefinitely.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// TLS contains TLS configuration for the listener.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS configuration.
type TLSConfig struct {
	// Enabled controls whether the listener serves TLS.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM certificate. Required when Enabled.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM private key. Required when Enabled.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version to accept.
	// Options: "1.2", "1.3"
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Reporters contains periodic snapshot reporter configuration.
	Reporters ReportersConfig `yaml:"reporters"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls request timing and the metrics endpoint.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Runtime registers Go runtime and process collectors.
	// Default: false
	Runtime bool `yaml:"runtime"`

	// Namespace is the metric name prefix.
	// Default: "harbor"
	Namespace string `yaml:"namespace"`

	// Path is the HTTP path of the Prometheus endpoint. Empty disables it.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// MaxRoutes caps the number of distinct request timers.
	// Default: 1000
	MaxRoutes int `yaml:"max_routes"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	// Enabled controls whether health probes are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the aggregate health endpoint.
	// Default: "/health"
	Path string `yaml:"path"`

	// CheckTimeout bounds each individual probe.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`

	// RateLimit is the maximum number of health requests per second. Zero disables limiting.
	// Default: 10
	RateLimit int `yaml:"rate_limit"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`

	// Insecure disables transport security towards the collector.
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of requests traced (0.0 - 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "harbor"
	ServiceName string `yaml:"service_name"`
}

// ReportersConfig contains configuration for periodic snapshot reporters.
type ReportersConfig struct {
	// Console writes snapshots to standard output.
	Console ConsoleReporterConfig `yaml:"console"`

	// CSV appends snapshots to one CSV file per metric.
	CSV CSVReporterConfig `yaml:"csv"`

	// SQLite stores snapshots in a SQLite database.
	SQLite SQLiteReporterConfig `yaml:"sqlite"`
}

// ConsoleReporterConfig configures the console reporter.
type ConsoleReporterConfig struct {
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression or "@every <duration>".
	// Default: "@every 1m"
	Schedule string `yaml:"schedule"`
}

// CSVReporterConfig configures the CSV reporter.
type CSVReporterConfig struct {
	Enabled bool `yaml:"enabled"`

	// Directory receives the CSV files. Required when Enabled.
	Directory string `yaml:"directory"`

	// Default: "@every 1m"
	Schedule string `yaml:"schedule"`
}

// SQLiteReporterConfig configures the SQLite reporter.
type SQLiteReporterConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path is the database file. Required when Enabled.
	Path string `yaml:"path"`

	// Default: "@every 1m"
	Schedule string `yaml:"schedule"`
}

// AdminConfig contains configuration for administrative endpoints.
type AdminConfig struct {
	// StopEnabled exposes an endpoint that stops the server through its Stopper.
	// Default: false
	StopEnabled bool `yaml:"stop_enabled"`

	// StopPath is the HTTP path of the stop endpoint.
	// Default: "/admin/stop"
	StopPath string `yaml:"stop_path"`
}

// ReportingEnabled reports whether any snapshot reporter is configured.
func (r ReportersConfig) ReportingEnabled() bool {
	return r.Console.Enabled || r.CSV.Enabled || r.SQLite.Enabled
}
