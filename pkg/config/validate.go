package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.port").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It is the ConfigError of the runtime: it is always reported before a server
// leaves STARTING and a configuration that produced it is never applied.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether the error contains a failure for the given field.
func (e ValidationError) HasField(field string) bool {
	for _, err := range e.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateAdmin(&cfg.Admin)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// ValidateTelemetry validates only the telemetry section, for callers that
// assemble telemetry without a full configuration file.
func ValidateTelemetry(cfg *TelemetryConfig) error {
	if errs := validateTelemetry(cfg); len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "server.port",
			Message: fmt.Sprintf("port %d out of range 0-65535", cfg.Port),
		})
	}
	if cfg.WorkerThreads <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.worker_threads",
			Message: "worker threads must be positive",
		})
	}
	if cfg.BackgroundThreads <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.background_threads",
			Message: "background threads must be positive",
		})
	}
	if _, err := NewBufferAllocator(cfg.BufferAllocator); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.buffer_allocator",
			Message: err.Error(),
		})
	}

	durations := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", cfg.ReadTimeout},
		{"server.write_timeout", cfg.WriteTimeout},
		{"server.idle_timeout", cfg.IdleTimeout},
		{"server.shutdown_timeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value < 0 {
			errs = append(errs, FieldError{Field: d.field, Message: "duration must not be negative"})
		}
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.cert_file",
				Message: "cert file is required when TLS is enabled",
			})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.key_file",
				Message: "key file is required when TLS is enabled",
			})
		}
		if cfg.TLS.MinVersion != "1.2" && cfg.TLS.MinVersion != "1.3" {
			errs = append(errs, FieldError{
				Field:   "server.tls.min_version",
				Message: fmt.Sprintf("invalid TLS version %q: must be '1.2' or '1.3'", cfg.TLS.MinVersion),
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if cfg.Metrics.MaxRoutes < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.max_routes",
				Message: "max routes must be non-negative",
			})
		}
	}

	if cfg.Health.Enabled {
		if cfg.Health.Path == "" || cfg.Health.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.path",
				Message: "health path must start with /",
			})
		}
		if cfg.Health.CheckTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
		if cfg.Health.CheckTimeout > 60*time.Second {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout exceeds reasonable limit (60s)",
			})
		}
		if cfg.Health.RateLimit < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.rate_limit",
				Message: "rate limit must be non-negative",
			})
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	errs = append(errs, validateReporters(&cfg.Reporters)...)

	return errs
}

// validateReporters validates reporter configuration.
func validateReporters(cfg *ReportersConfig) []FieldError {
	var errs []FieldError

	if cfg.CSV.Enabled && cfg.CSV.Directory == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.reporters.csv.directory",
			Message: "report directory is required when the CSV reporter is enabled",
		})
	}
	if cfg.SQLite.Enabled && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.reporters.sqlite.path",
			Message: "database path is required when the SQLite reporter is enabled",
		})
	}

	schedules := []struct {
		field    string
		enabled  bool
		schedule string
	}{
		{"telemetry.reporters.console.schedule", cfg.Console.Enabled, cfg.Console.Schedule},
		{"telemetry.reporters.csv.schedule", cfg.CSV.Enabled, cfg.CSV.Schedule},
		{"telemetry.reporters.sqlite.schedule", cfg.SQLite.Enabled, cfg.SQLite.Schedule},
	}
	for _, s := range schedules {
		if !s.enabled {
			continue
		}
		if _, err := cron.ParseStandard(s.schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   s.field,
				Message: fmt.Sprintf("invalid schedule %q: %v", s.schedule, err),
			})
		}
	}

	return errs
}

// validateAdmin validates admin endpoint configuration.
func validateAdmin(cfg *AdminConfig) []FieldError {
	var errs []FieldError

	if cfg.StopEnabled && !strings.HasPrefix(cfg.StopPath, "/") {
		errs = append(errs, FieldError{
			Field:   "admin.stop_path",
			Message: "stop path must start with /",
		})
	}

	return errs
}
