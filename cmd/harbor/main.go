// Harbor is a small HTTP server runtime with an ordered handler pipeline,
// bounded worker slots and built-in telemetry.
//
// It serves a demo application wrapped in the standard decorators:
//   - Request timing, health and Prometheus metrics endpoints
//   - Request IDs, OpenTelemetry spans and access logs
//   - Panic recovery and an optional admin stop endpoint
//
// Usage:
//
//	# Start server with default configuration
//	harbor run
//
//	# Start with custom configuration file, restarting when it changes
//	harbor run --config /path/to/config.yaml --watch
//
//	# Validate configuration and print the effective values
//	harbor validate --config config.yaml --output yaml
//
//	# Show version information
//	harbor version
package main

import "os"

func main() {
	os.Exit(Execute())
}
