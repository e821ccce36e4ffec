// Package logging builds the structured loggers used by harbor.
//
// Loggers are plain *slog.Logger values with a JSON or text handler. The
// handler adds the request ID, trace ID and span ID stored in the context of
// each record, so request-scoped code only needs the *Context variants:
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, os.Stderr))
//	ctx = logging.WithRequestID(ctx, id)
//	logger.InfoContext(ctx, "request completed", "status", 200)
package logging
