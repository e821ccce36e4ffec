// Package config provides configuration management for harbor servers.
//
// This package has two layers. The file model (Config) is loaded from YAML,
// completed with defaults, overridden from the environment and validated.
// The launch layer (LaunchConfig) is the immutable snapshot of server
// parameters that a server reads while it runs.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("harbor.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("harbor.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention HARBOR_SECTION_FIELD.
// For example:
//
//   - HARBOR_SERVER_PORT overrides server.port
//   - HARBOR_SERVER_WORKER_THREADS overrides server.worker_threads
//   - HARBOR_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// A configuration that fails validation is never applied. Every failing
// field is reported at once in a ValidationError.
//
// # Launch Configuration
//
// LaunchConfig is derived once, before a server starts:
//
//	lc, err := config.NewLaunchConfig(cfg)
//
// or built programmatically:
//
//	lc, err := config.NewLaunchConfigBuilder().
//		Port(0).
//		WorkerThreads(4).
//		Build()
//
// Its fields are unexported and it is safe to share between goroutines and
// between server instances.
//
// # Watching
//
// Watcher reports debounced changes to a configuration file so a process can
// reload and restart its server.
package config
