package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{
			name:   "valid defaults",
			modify: func(*Config) {},
		},
		{
			name:   "port too large",
			modify: func(c *Config) { c.Server.Port = 70000 },
			field:  "server.port",
		},
		{
			name:   "negative port",
			modify: func(c *Config) { c.Server.Port = -1 },
			field:  "server.port",
		},
		{
			name:   "zero worker threads",
			modify: func(c *Config) { c.Server.WorkerThreads = 0 },
			field:  "server.worker_threads",
		},
		{
			name:   "negative background threads",
			modify: func(c *Config) { c.Server.BackgroundThreads = -2 },
			field:  "server.background_threads",
		},
		{
			name:   "unknown allocator",
			modify: func(c *Config) { c.Server.BufferAllocator = "arena" },
			field:  "server.buffer_allocator",
		},
		{
			name:   "negative shutdown timeout",
			modify: func(c *Config) { c.Server.ShutdownTimeout = -1 },
			field:  "server.shutdown_timeout",
		},
		{
			name:   "tls without cert",
			modify: func(c *Config) { c.Server.TLS.Enabled = true; c.Server.TLS.KeyFile = "key.pem" },
			field:  "server.tls.cert_file",
		},
		{
			name: "tls bad version",
			modify: func(c *Config) {
				c.Server.TLS = TLSConfig{Enabled: true, CertFile: "c", KeyFile: "k", MinVersion: "1.1"}
			},
			field: "server.tls.min_version",
		},
		{
			name:   "bad log level",
			modify: func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "bad log format",
			modify: func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			field:  "telemetry.logging.format",
		},
		{
			name:   "relative metrics path",
			modify: func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			field:  "telemetry.metrics.path",
		},
		{
			name:   "relative health path",
			modify: func(c *Config) { c.Telemetry.Health.Path = "health" },
			field:  "telemetry.health.path",
		},
		{
			name:   "tracing without endpoint",
			modify: func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			field:  "telemetry.tracing.endpoint",
		},
		{
			name:   "sample ratio out of range",
			modify: func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			field:  "telemetry.tracing.sample_ratio",
		},
		{
			name:   "csv without directory",
			modify: func(c *Config) { c.Telemetry.Reporters.CSV.Enabled = true },
			field:  "telemetry.reporters.csv.directory",
		},
		{
			name:   "sqlite without path",
			modify: func(c *Config) { c.Telemetry.Reporters.SQLite.Enabled = true },
			field:  "telemetry.reporters.sqlite.path",
		},
		{
			name: "bad console schedule",
			modify: func(c *Config) {
				c.Telemetry.Reporters.Console.Enabled = true
				c.Telemetry.Reporters.Console.Schedule = "every minute"
			},
			field: "telemetry.reporters.console.schedule",
		},
		{
			name:   "disabled reporter schedule ignored",
			modify: func(c *Config) { c.Telemetry.Reporters.Console.Schedule = "every minute" },
		},
		{
			name:   "relative stop path",
			modify: func(c *Config) { c.Admin.StopEnabled = true; c.Admin.StopPath = "stop" },
			field:  "admin.stop_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}

			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if !verr.HasField(tt.field) {
				t.Errorf("expected failure for %s, got %v", tt.field, verr)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "server.port", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: server.port: bad" {
		t.Errorf("unexpected message %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "one"},
		{Field: "b", Message: "two"},
	}}
	msg := multi.Error()
	if !strings.Contains(msg, "2 errors") || !strings.Contains(msg, "a: one") || !strings.Contains(msg, "b: two") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)

	if *cfg != first {
		t.Error("expected ApplyDefaults to be idempotent")
	}
	if cfg.Server.Port != 0 {
		t.Errorf("expected port to be left alone, got %d", cfg.Server.Port)
	}
	if cfg.Server.WorkerThreads <= 0 {
		t.Errorf("expected positive default worker threads, got %d", cfg.Server.WorkerThreads)
	}
}
