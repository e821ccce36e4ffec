package logging

import (
	"context"
	"log/slog"
)

// field is a request-scoped value carried in a context and added to every
// record logged with that context.
type field int

const (
	requestIDField field = iota
	traceIDField
	spanIDField
)

// fieldNames are the record keys, in the order they are emitted.
var fieldNames = [...]string{
	requestIDField: "request_id",
	traceIDField:   "trace_id",
	spanIDField:    "span_id",
}

func with(ctx context.Context, f field, v string) context.Context {
	return context.WithValue(ctx, f, v)
}

func get(ctx context.Context, f field) string {
	v, _ := ctx.Value(f).(string)
	return v
}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return with(ctx, requestIDField, id)
}

// GetRequestID returns the request id of ctx, or "".
func GetRequestID(ctx context.Context) string { return get(ctx, requestIDField) }

// WithTraceID returns a context carrying the trace id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return with(ctx, traceIDField, id)
}

// GetTraceID returns the trace id of ctx, or "".
func GetTraceID(ctx context.Context) string { return get(ctx, traceIDField) }

// WithSpanID returns a context carrying the span id.
func WithSpanID(ctx context.Context, id string) context.Context {
	return with(ctx, spanIDField, id)
}

// GetSpanID returns the span id of ctx, or "".
func GetSpanID(ctx context.Context) string { return get(ctx, spanIDField) }

// extractContextFields returns the non-empty request fields of ctx as
// alternating keys and values.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for f, name := range fieldNames {
		if v := get(ctx, field(f)); v != "" {
			fields = append(fields, name, v)
		}
	}
	return fields
}

// FromContext returns logger with the context's request and trace fields
// attached, for code that logs without passing the context along.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
