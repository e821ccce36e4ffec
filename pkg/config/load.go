package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// Keys absent from the file keep their default values. The result is
// validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration file %q: %w", path, err)
	}

	return cfg, nil
}

// ParseConfig parses YAML configuration bytes on top of the defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention HARBOR_SECTION_FIELD (e.g., HARBOR_SERVER_PORT).
// An empty path skips the file and starts from the defaults.
//
// The loading sequence is:
// 1. Load YAML from file (or defaults)
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg = DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
		ApplyDefaults(cfg)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean and duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val, ok := os.LookupEnv("HARBOR_SERVER_ADDRESS"); ok {
		cfg.Server.Address = val
	}
	envInt("HARBOR_SERVER_PORT", &cfg.Server.Port)
	envInt("HARBOR_SERVER_WORKER_THREADS", &cfg.Server.WorkerThreads)
	envInt("HARBOR_SERVER_BACKGROUND_THREADS", &cfg.Server.BackgroundThreads)
	envString("HARBOR_SERVER_BUFFER_ALLOCATOR", &cfg.Server.BufferAllocator)
	envDuration("HARBOR_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("HARBOR_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("HARBOR_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("HARBOR_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt("HARBOR_SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	envBool("HARBOR_SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	envString("HARBOR_SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	envString("HARBOR_SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)

	// Telemetry overrides
	envString("HARBOR_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("HARBOR_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("HARBOR_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("HARBOR_TELEMETRY_METRICS_RUNTIME", &cfg.Telemetry.Metrics.Runtime)
	envString("HARBOR_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("HARBOR_TELEMETRY_HEALTH_ENABLED", &cfg.Telemetry.Health.Enabled)
	envString("HARBOR_TELEMETRY_HEALTH_PATH", &cfg.Telemetry.Health.Path)
	envBool("HARBOR_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("HARBOR_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv("HARBOR_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
	envBool("HARBOR_TELEMETRY_REPORTERS_CONSOLE_ENABLED", &cfg.Telemetry.Reporters.Console.Enabled)
	envBool("HARBOR_TELEMETRY_REPORTERS_CSV_ENABLED", &cfg.Telemetry.Reporters.CSV.Enabled)
	envString("HARBOR_TELEMETRY_REPORTERS_CSV_DIRECTORY", &cfg.Telemetry.Reporters.CSV.Directory)
	envBool("HARBOR_TELEMETRY_REPORTERS_SQLITE_ENABLED", &cfg.Telemetry.Reporters.SQLite.Enabled)
	envString("HARBOR_TELEMETRY_REPORTERS_SQLITE_PATH", &cfg.Telemetry.Reporters.SQLite.Path)

	// Admin overrides
	envBool("HARBOR_ADMIN_STOP_ENABLED", &cfg.Admin.StopEnabled)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
