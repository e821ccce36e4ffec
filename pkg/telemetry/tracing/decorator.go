package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/handling"
	"mercator-hq/harbor/pkg/telemetry/logging"
)

// Decorator returns a decorator that runs every request inside a server
// span named "<METHOD> <path>", continuing any trace carried by the request
// headers. The trace and span IDs are added to the request context so log
// records written while handling the request carry them.
//
// A returned error or a 5xx status marks the span as failed.
func Decorator(t *Tracer) handling.Decorator {
	return func(_ *config.LaunchConfig, next handling.Handler) (handling.Handler, error) {
		return handling.HandlerFunc(func(c *handling.Context) error {
			r := c.Request()

			ctx := t.Extract(c.Context(), r.Header)
			ctx, span := t.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
					attribute.String("client.address", r.RemoteAddr),
				),
			)
			defer span.End()

			if sc := span.SpanContext(); sc.IsValid() {
				ctx = logging.WithTraceID(ctx, sc.TraceID().String())
				ctx = logging.WithSpanID(ctx, sc.SpanID().String())
			}
			c.SetContext(ctx)

			err := next.Handle(c)

			status := c.Response().Status()
			if err != nil && !c.Response().Committed() {
				status = handling.StatusOf(err)
			}
			span.SetAttributes(attribute.Int("http.response.status_code", status))

			switch {
			case err != nil:
				SetStatus(span, err)
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			return err
		}), nil
	}
}
