// Package tracing provides OpenTelemetry distributed tracing for harbor
// servers.
//
// # Overview
//
// A Tracer owns its own tracer provider; nothing is installed as the global
// OpenTelemetry provider, so independent servers in one process trace
// independently. When tracing is disabled New returns a noop tracer.
//
// # Trace Context Propagation
//
// W3C Trace Context and Baggage headers are extracted from every incoming
// request, so spans continue traces started by callers:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// # Sampling
//
// telemetry.tracing.sample_ratio selects the share of new traces recorded.
// Decisions made by a parent are always respected.
//
// # Usage
//
//	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	srv, err := server.New(launch, app,
//	    server.WithDecorators(tracing.Decorator(tracer)),
//	)
package tracing
