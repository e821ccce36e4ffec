// Package health provides the named health check registry of a harbor server.
//
// # Overview
//
// Components declare health probes by name. Running the registry evaluates
// every probe concurrently, each with its own timeout, and reports a result
// per name. A probe that returns an error, panics or exceeds its timeout is
// reported as unhealthy under its own name; the other probes still report
// their true status in the same run.
//
// # Usage
//
//	registry := health.New(5 * time.Second)
//	registry.RegisterFunc("database", func(ctx context.Context) error {
//	    return db.PingContext(ctx)
//	})
//
//	report := registry.RunAll(ctx)
//	if !report.Healthy() {
//	    log.Warn("degraded", "checks", report.Checks)
//	}
//
// # Endpoint
//
// Handler serves the report as JSON with status 200 when every check passed
// and 503 otherwise. RateLimitedHandler protects it from abuse.
package health
