// Package telemetry provides the observability layer of a harbor server.
//
// # Components
//
//   - logging: structured slog loggers with request and trace IDs
//   - metrics: gauge and timer registry exported to Prometheus
//   - health: named health checks and the aggregate health endpoint
//   - tracing: OpenTelemetry request spans exported over OTLP
//   - report: console, CSV and SQLite snapshot reporters
//
// # Usage
//
// A Module wires metrics, health and reporting into one server:
//
//	tel, err := telemetry.New(ctx, cfg.Telemetry, telemetry.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	tel.Add(queue, database) // gauges and health checks
//
//	srv, err := server.New(launch, app,
//	    server.WithDecorators(tel.Decorator()),
//	    server.WithService(tel.Services()...),
//	)
//
// Gauges passed to Add are registered immediately. Health checks are
// registered when the server assembles its handler chain, so components
// created during module configuration are picked up in one pass.
package telemetry
